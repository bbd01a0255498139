// Command playground talks to the sqlite driver directly, without the
// server's repositories: it inserts a todo and a user row into a scratch
// database and prints what it reads back.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS playground_todos (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS playground_users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	age INTEGER NOT NULL,
	location TEXT NOT NULL
);
`

type todoDoc struct {
	ID        string `json:"_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type userDoc struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Location string `json:"location"`
}

func main() {
	dsn := flag.String("db", "file:playground?mode=memory&cache=shared", "sqlite data source name")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx, *dsn, logger); err != nil {
		logger.Errorf("playground: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dsn string, logger *logrus.Logger) error {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("unable to connect: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("unable to connect: %w", err)
	}
	logger.Info("connected to sqlite")

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	todo := todoDoc{ID: uuid.NewString(), Text: "xyz"}
	if _, err := db.ExecContext(ctx, `INSERT INTO playground_todos (id, text, completed) VALUES (?, ?, ?)`,
		todo.ID, todo.Text, todo.Completed); err != nil {
		return fmt.Errorf("unable to insert todo: %w", err)
	}
	if err := printJSON([]todoDoc{todo}); err != nil {
		return err
	}

	todos, err := listTodos(ctx, db)
	if err != nil {
		return err
	}
	if err := printJSON(todos); err != nil {
		return err
	}

	user := userDoc{ID: uuid.NewString(), Name: "Anuj", Age: 24, Location: "India"}
	if _, err := db.ExecContext(ctx, `INSERT INTO playground_users (id, name, age, location) VALUES (?, ?, ?, ?)`,
		user.ID, user.Name, user.Age, user.Location); err != nil {
		return fmt.Errorf("unable to insert user: %w", err)
	}
	return printJSON([]userDoc{user})
}

func listTodos(ctx context.Context, db *sql.DB) ([]todoDoc, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, text, completed FROM playground_todos ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	var docs []todoDoc
	for rows.Next() {
		var doc todoDoc
		if err := rows.Scan(&doc.ID, &doc.Text, &doc.Completed); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
