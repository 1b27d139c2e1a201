package bson

import "sort"

// Type ranks for cross-type ordering. Values of different types sort by
// rank so indexes have a total order over mixed keys.
const (
	rankNull = iota
	rankBool
	rankNumber
	rankString
	rankArray
	rankDocument
)

func rankOf(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case int, int32, int64, uint64, float64:
		return rankNumber
	case string:
		return rankString
	case []any:
		return rankArray
	case map[string]any, Document:
		return rankDocument
	default:
		return rankNull
	}
}

// Compare defines the total order used by indexes and ORDER BY.
// Returns -1, 0 or 1. Numbers compare numerically regardless of the
// concrete Go type the decoder produced.
func Compare(a, b any) int {
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case rankNull:
		return 0
	case rankBool:
		ba, bb := a.(bool), b.(bool)
		if ba == bb {
			return 0
		}
		if !ba {
			return -1
		}
		return 1
	case rankNumber:
		fa, fb := toFloat(a), toFloat(b)
		if fa < fb {
			return -1
		}
		if fa > fb {
			return 1
		}
		return 0
	case rankString:
		sa, sb := a.(string), b.(string)
		if sa < sb {
			return -1
		}
		if sa > sb {
			return 1
		}
		return 0
	case rankArray:
		return compareArrays(a.([]any), b.([]any))
	case rankDocument:
		return compareDocuments(a, b)
	}
	return 0
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

func compareArrays(a, b []any) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// compareDocuments compares by sorted key sequence, then field values.
// Rarely hit in practice (documents as index keys), but keeps the order total.
func compareDocuments(a, b any) int {
	da, _ := AsDocument(a)
	db, _ := AsDocument(b)

	ka := sortedKeys(da)
	kb := sortedKeys(db)
	n := len(ka)
	if len(kb) < n {
		n = len(kb)
	}
	for i := 0; i < n; i++ {
		if ka[i] != kb[i] {
			if ka[i] < kb[i] {
				return -1
			}
			return 1
		}
		if c := Compare(da[ka[i]], db[kb[i]]); c != 0 {
			return c
		}
	}
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	}
	return 0
}

func sortedKeys(d Document) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
