package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// seedDemoData loads a small catalog and a demo account for local runs.
// Idempotent: it keys everything by fixed ids.
func seedDemoData(ctx context.Context, db *sql.DB) error {
	now := time.Now().Unix()

	hash, err := bcrypt.GenerateFromPassword([]byte("demo"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ('demo-user','demo',$1,'student',$2)
		ON CONFLICT (id) DO NOTHING`, string(hash), now); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO categories (id, name) VALUES ('cat-go','Programming')
		ON CONFLICT (id) DO NOTHING`); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO tests (id, title, description, duration_min, total_marks, passing_marks, category_id, created_at)
		VALUES ('test-go-basics','Go Basics','Fundamentals of the Go language.',10,3,2,'cat-go',$1)
		ON CONFLICT (id) DO NOTHING`, now); err != nil {
		return err
	}

	questions := []struct {
		text    string
		options []string
		correct int
		marks   int
	}{
		{"Which keyword declares a new variable with inferred type?", []string{"var", ":=", "let", "def"}, 1, 1},
		{"What is the zero value of a pointer?", []string{"0", "\"\"", "nil", "undefined"}, 2, 1},
		{"Which builtin grows a slice?", []string{"append", "push", "add", "grow"}, 0, 1},
	}
	for i, q := range questions {
		oj, _ := json.Marshal(q.options)
		if _, err := db.ExecContext(ctx, `
			INSERT INTO questions (id, test_id, text, options_json, correct_option, marks, position)
			VALUES ($1,'test-go-basics',$2,$3,$4,$5,$6)
			ON CONFLICT (id) DO NOTHING`,
			fmt.Sprintf("q-go-%d", i+1), q.text, string(oj), q.correct, q.marks, i); err != nil {
			return err
		}
	}
	return nil
}
