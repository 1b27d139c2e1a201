package litedb_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaan-kaya/litedb"
)

func openDB(t *testing.T) *litedb.Database {
	t.Helper()
	db, err := litedb.Open(litedb.WithLogLevel("error"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *litedb.Database) *litedb.Collection {
	t.Helper()
	users := db.Collection("users")
	for _, d := range []litedb.Document{
		{"_id": float64(1), "age": float64(30), "name": "ada"},
		{"_id": float64(2), "age": float64(17), "name": "bo"},
		{"_id": float64(3), "age": float64(45), "name": "cy"},
	} {
		_, err := users.Insert(d)
		require.NoError(t, err)
	}
	require.NoError(t, users.EnsureIndex("age"))
	return users
}

func TestEndToEnd(t *testing.T) {
	db := openDB(t)
	users := seed(t, db)
	ctx := context.Background()

	adults, err := users.Query().
		WhereText("age >= 18").
		OrderBy("age", litedb.Ascending).
		All(ctx)
	require.NoError(t, err)
	require.Len(t, adults, 2)
	require.Equal(t, float64(30), adults[0]["age"])
	require.Equal(t, float64(45), adults[1]["age"])

	bo, err := users.Query().SingleByID(ctx, float64(2))
	require.NoError(t, err)
	require.Equal(t, "bo", bo["name"])

	n, err := users.Query().WhereText("age >= @0", float64(18)).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	ok, err := users.Query().WhereText("age > 100").Exists(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMutatedResultDoesNotChangeStoredDocument(t *testing.T) {
	db := openDB(t)
	users := seed(t, db)
	ctx := context.Background()

	ada, err := users.Query().SingleByID(ctx, float64(1))
	require.NoError(t, err)
	ada["age"] = float64(99)

	again, err := users.Query().SingleByID(ctx, float64(1))
	require.NoError(t, err)
	require.Equal(t, float64(30), again["age"])
}

func TestManualIteration(t *testing.T) {
	db := openDB(t)
	users := seed(t, db)

	it := users.Query().OrderBy("age", litedb.Descending).Iterator(context.Background())
	defer it.Close()

	var ages []float64
	for {
		doc, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ages = append(ages, doc["age"].(float64))
	}
	require.Equal(t, []float64{45, 30, 17}, ages)
}

func TestWhereEq(t *testing.T) {
	db := openDB(t)
	users := seed(t, db)

	doc, err := users.Query().WhereEq("name", "ada").Single(context.Background())
	require.NoError(t, err)
	require.Equal(t, float64(1), doc["_id"])
}

func TestCrossCollectionInclude(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	customers := db.Collection("customers")
	_, err := customers.Insert(litedb.Document{"_id": float64(7), "name": "ada"})
	require.NoError(t, err)

	orders := db.Collection("orders")
	_, err = orders.Insert(litedb.Document{
		"_id":      float64(1),
		"customer": litedb.Document{"$ref": "customers", "$id": float64(7)},
	})
	require.NoError(t, err)

	order, err := orders.Query().Include("customer").Single(ctx)
	require.NoError(t, err)
	customer, ok := order["customer"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ada", customer["name"])
}

func TestTransactionRollbackStopsQueries(t *testing.T) {
	db := openDB(t)
	users := seed(t, db)

	tx := db.Begin()
	it := users.Query().Tx(tx).Iterator(context.Background())

	_, err := it.Next()
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	// The snapshot is gone; the collection is writable again.
	_, err = users.Insert(litedb.Document{"_id": float64(9), "age": float64(1)})
	require.NoError(t, err)
}

func TestUpdateAndDelete(t *testing.T) {
	db := openDB(t)
	users := seed(t, db)
	ctx := context.Background()

	require.NoError(t, users.Update(litedb.Document{"_id": float64(2), "age": float64(18), "name": "bo"}))
	n, err := users.Query().WhereText("age >= 18").Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	removed, err := users.Delete(float64(3))
	require.NoError(t, err)
	require.True(t, removed)

	n, err = users.Query().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestCollectionNames(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	_, err := db.Collection("zoo").Insert(litedb.Document{"_id": float64(1)})
	require.NoError(t, err)

	require.Equal(t, []string{"users", "zoo"}, db.CollectionNames())
	require.NoError(t, db.DropCollection("zoo"))
	require.Equal(t, []string{"users"}, db.CollectionNames())
}
