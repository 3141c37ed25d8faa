// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// buntdbstore keeps accounts and todos as JSON documents in BuntDB
// (https://github.com/tidwall/buntdb).
//
// Every mutation runs inside one BuntDB write transaction. BuntDB allows a
// single writer at a time, so changes to one document never interleave.
package buntdbstore

import (
	"fmt"

	"github.com/tidwall/buntdb"
)

const (
	accountPrefix = "account:"
	emailPrefix   = "account-email:"
	todoPrefix    = "todo:"

	todoIndex = "todos_by_created"
)

type Store struct {
	db *buntdb.DB

	accounts *AccountStore
	todos    *TodoRepository
}

// Open opens (or creates) the BuntDB file at path. ":memory:" keeps
// everything in memory.
func Open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("problem opening buntdb %s: %v", path, err)
	}
	if err := db.CreateIndex(todoIndex, todoPrefix+"*", buntdb.IndexJSON("createdAt")); err != nil {
		db.Close()
		return nil, fmt.Errorf("problem creating %s index: %v", todoIndex, err)
	}
	s := &Store{db: db}
	s.accounts = &AccountStore{db: db}
	s.todos = &TodoRepository{db: db}
	return s, nil
}

func (s *Store) Accounts() *AccountStore {
	return s.accounts
}

func (s *Store) Todos() *TodoRepository {
	return s.todos
}

// Ping runs a read transaction to confirm the database is usable.
func (s *Store) Ping() error {
	return s.db.View(func(tx *buntdb.Tx) error {
		_, err := tx.Len()
		return err
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
