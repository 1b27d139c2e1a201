package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/peterh/liner"

	"github.com/kaan-kaya/litedb"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const prompt = "litedb> "

const helpText = `Commands:
  insert <collection> <json>          store a document
  update <collection> <json>          replace a document by its _id
  delete <collection> <id>            remove a document
  get <collection> <id>               fetch one document by _id
  find <collection> [filter]          query, e.g. find users age >= 18
  count <collection> [filter]         count matching documents
  exists <collection> [filter]        report whether any document matches
  index <collection> <path>           create a secondary index
  collections                         list collections
  help                                this text
  exit                                leave the shell`

func runREPL(db *litedb.Database) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("litedb shell. Type 'help' for commands.")
	ctx := context.Background()

	for {
		input, err := line.Prompt(prompt)
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if input == "exit" || input == "quit" {
			return nil
		}
		if out, err := dispatch(ctx, db, input); err != nil {
			fmt.Println("error:", err)
		} else if out != "" {
			fmt.Println(out)
		}
	}
}

func dispatch(ctx context.Context, db *litedb.Database, input string) (string, error) {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "help":
		return helpText, nil
	case "collections":
		names := db.CollectionNames()
		if len(names) == 0 {
			return "(none)", nil
		}
		return strings.Join(names, "\n"), nil
	case "insert", "update":
		name, payload, ok := splitArg(rest)
		if !ok {
			return "", fmt.Errorf("usage: %s <collection> <json>", cmd)
		}
		var doc litedb.Document
		if err := json.UnmarshalFromString(payload, &doc); err != nil {
			return "", fmt.Errorf("parse document: %w", err)
		}
		if cmd == "insert" {
			id, err := db.Collection(name).Insert(doc)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("inserted %v", id), nil
		}
		if err := db.Collection(name).Update(doc); err != nil {
			return "", err
		}
		return "updated", nil
	case "delete":
		name, arg, ok := splitArg(rest)
		if !ok {
			return "", fmt.Errorf("usage: delete <collection> <id>")
		}
		removed, err := db.Collection(name).Delete(parseID(arg))
		if err != nil {
			return "", err
		}
		if !removed {
			return "not found", nil
		}
		return "deleted", nil
	case "get":
		name, arg, ok := splitArg(rest)
		if !ok {
			return "", fmt.Errorf("usage: get <collection> <id>")
		}
		doc, err := db.Collection(name).Query().SingleByID(ctx, parseID(arg))
		if err != nil {
			return "", err
		}
		return render(doc)
	case "find":
		name, filter, _ := splitArg(rest)
		if name == "" {
			return "", fmt.Errorf("usage: find <collection> [filter]")
		}
		q := db.Collection(name).Query()
		if filter != "" {
			q = q.WhereText(filter)
		}
		docs, err := q.All(ctx)
		if err != nil {
			return "", err
		}
		lines := make([]string, 0, len(docs)+1)
		for _, d := range docs {
			s, err := render(d)
			if err != nil {
				return "", err
			}
			lines = append(lines, s)
		}
		lines = append(lines, fmt.Sprintf("(%d documents)", len(docs)))
		return strings.Join(lines, "\n"), nil
	case "count":
		name, filter, _ := splitArg(rest)
		if name == "" {
			return "", fmt.Errorf("usage: count <collection> [filter]")
		}
		q := db.Collection(name).Query()
		if filter != "" {
			q = q.WhereText(filter)
		}
		n, err := q.Count(ctx)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	case "exists":
		name, filter, _ := splitArg(rest)
		if name == "" {
			return "", fmt.Errorf("usage: exists <collection> [filter]")
		}
		q := db.Collection(name).Query()
		if filter != "" {
			q = q.WhereText(filter)
		}
		found, err := q.Exists(ctx)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(found), nil
	case "index":
		name, path, ok := splitArg(rest)
		if !ok {
			return "", fmt.Errorf("usage: index <collection> <path>")
		}
		if err := db.Collection(name).EnsureIndex(path); err != nil {
			return "", err
		}
		return "index ready", nil
	default:
		return "", fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func splitArg(s string) (first, rest string, ok bool) {
	first, rest, _ = strings.Cut(s, " ")
	rest = strings.TrimSpace(rest)
	return first, rest, first != "" && rest != ""
}

// parseID keeps numeric ids numeric so they match how JSON documents
// store them.
func parseID(s string) any {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return strings.Trim(s, `"'`)
}

func render(doc litedb.Document) (string, error) {
	if doc == nil {
		return "null", nil
	}
	return json.MarshalToString(doc)
}
