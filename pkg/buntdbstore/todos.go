// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package buntdbstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/moov-io/todos/pkg/todo"

	"github.com/tidwall/buntdb"
)

type todoDocument struct {
	todo.Todo

	// CreatedAt (unix nanos) orders List.
	CreatedAt int64 `json:"createdAt"`
}

// TodoRepository implements todo.Repository.
type TodoRepository struct {
	db *buntdb.DB

	now func() time.Time
}

var _ todo.Repository = (*TodoRepository)(nil)

func (r *TodoRepository) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *TodoRepository) Create(_ context.Context, t *todo.Todo) error {
	if !todo.ValidID(t.ID) {
		return fmt.Errorf("invalid todo id %q", t.ID)
	}
	bs, err := json.Marshal(&todoDocument{Todo: *t, CreatedAt: r.clock().UnixNano()})
	if err != nil {
		return err
	}
	err = r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(todoPrefix+t.ID, string(bs), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("problem creating todo %s: %v", t.ID, err)
	}
	return nil
}

func (r *TodoRepository) List(_ context.Context) ([]*todo.Todo, error) {
	var out []*todo.Todo
	err := r.db.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		err := tx.Ascend(todoIndex, func(key, value string) bool {
			var doc todoDocument
			if err := json.Unmarshal([]byte(value), &doc); err != nil {
				decodeErr = fmt.Errorf("decoding %s: %v", key, err)
				return false
			}
			t := doc.Todo
			out = append(out, &t)
			return true
		})
		if err != nil {
			return err
		}
		return decodeErr
	})
	if err != nil {
		return nil, fmt.Errorf("problem listing todos: %v", err)
	}
	return out, nil
}

func (r *TodoRepository) Get(_ context.Context, id string) (*todo.Todo, error) {
	if !todo.ValidID(id) {
		return nil, todo.ErrNotFound
	}
	var doc *todoDocument
	err := r.db.View(func(tx *buntdb.Tx) error {
		var err error
		doc, err = getTodo(tx, id)
		return err
	})
	if err != nil {
		return nil, todoErr(err, id)
	}
	return &doc.Todo, nil
}

func (r *TodoRepository) Update(_ context.Context, id string, u todo.Update) (*todo.Todo, error) {
	if !todo.ValidID(id) {
		return nil, todo.ErrNotFound
	}
	var doc *todoDocument
	err := r.db.Update(func(tx *buntdb.Tx) error {
		var err error
		doc, err = getTodo(tx, id)
		if err != nil {
			return err
		}
		if err := doc.Apply(u, r.clock()); err != nil {
			return err
		}
		bs, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(todoPrefix+id, string(bs), nil)
		return err
	})
	if err != nil {
		if errors.Is(err, todo.ErrEmptyText) {
			return nil, err
		}
		return nil, todoErr(err, id)
	}
	return &doc.Todo, nil
}

func (r *TodoRepository) Delete(_ context.Context, id string) (*todo.Todo, error) {
	if !todo.ValidID(id) {
		return nil, todo.ErrNotFound
	}
	var doc *todoDocument
	err := r.db.Update(func(tx *buntdb.Tx) error {
		var err error
		doc, err = getTodo(tx, id)
		if err != nil {
			return err
		}
		_, err = tx.Delete(todoPrefix + id)
		return err
	})
	if err != nil {
		return nil, todoErr(err, id)
	}
	return &doc.Todo, nil
}

func getTodo(tx *buntdb.Tx, id string) (*todoDocument, error) {
	v, err := tx.Get(todoPrefix + id)
	if err != nil {
		return nil, err
	}
	var doc todoDocument
	if err := json.Unmarshal([]byte(v), &doc); err != nil {
		return nil, fmt.Errorf("decoding todo: %v", err)
	}
	return &doc, nil
}

func todoErr(err error, id string) error {
	if errors.Is(err, buntdb.ErrNotFound) {
		return todo.ErrNotFound
	}
	return fmt.Errorf("problem reading todo %s: %v", id, err)
}
