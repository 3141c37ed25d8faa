// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/moov-io/todos/pkg/todo"
)

type sqliteTodoRepository struct {
	db *sql.DB
}

var _ todo.Repository = (*sqliteTodoRepository)(nil)

func (r *sqliteTodoRepository) Create(ctx context.Context, t *todo.Todo) error {
	query := `insert into todos (todo_id, text, completed, completed_at, created_at) values (?, ?, ?, ?, ?);`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.Text, t.Completed, nullInt64(t.CompletedAt), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("problem creating todo %s: %v", t.ID, err)
	}
	return nil
}

func (r *sqliteTodoRepository) List(ctx context.Context) ([]*todo.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `select todo_id, text, completed, completed_at from todos order by created_at, rowid;`)
	if err != nil {
		return nil, fmt.Errorf("problem listing todos: %v", err)
	}
	defer rows.Close()

	var out []*todo.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("problem listing todos: %v", err)
	}
	return out, nil
}

func (r *sqliteTodoRepository) Get(ctx context.Context, id string) (*todo.Todo, error) {
	if !todo.ValidID(id) {
		return nil, todo.ErrNotFound
	}
	return getTodo(ctx, r.db, id)
}

func (r *sqliteTodoRepository) Update(ctx context.Context, id string, u todo.Update) (*todo.Todo, error) {
	if !todo.ValidID(id) {
		return nil, todo.ErrNotFound
	}
	var out *todo.Todo
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		t, err := getTodo(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := t.Apply(u, time.Now()); err != nil {
			return err
		}
		query := `update todos set text = ?, completed = ?, completed_at = ? where todo_id = ?;`
		if _, err := tx.ExecContext(ctx, query, t.Text, t.Completed, nullInt64(t.CompletedAt), id); err != nil {
			return fmt.Errorf("problem updating todo %s: %v", id, err)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqliteTodoRepository) Delete(ctx context.Context, id string) (*todo.Todo, error) {
	if !todo.ValidID(id) {
		return nil, todo.ErrNotFound
	}
	var out *todo.Todo
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		t, err := getTodo(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `delete from todos where todo_id = ?;`, id); err != nil {
			return fmt.Errorf("problem deleting todo %s: %v", id, err)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func getTodo(ctx context.Context, q queryer, id string) (*todo.Todo, error) {
	row := q.QueryRowContext(ctx, `select todo_id, text, completed, completed_at from todos where todo_id = ? limit 1;`, id)
	t, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, todo.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTodo(s scanner) (*todo.Todo, error) {
	var (
		t           todo.Todo
		completedAt sql.NullInt64
	)
	if err := s.Scan(&t.ID, &t.Text, &t.Completed, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("problem reading todo: %v", err)
	}
	if completedAt.Valid {
		ts := completedAt.Int64
		t.CompletedAt = &ts
	}
	return &t, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// withTx runs fn inside a transaction, committing when it returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("problem starting transaction: %v", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("problem committing transaction: %v", err)
	}
	return nil
}
