// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/moov-io/todos/pkg/buntdbstore"
	"github.com/moov-io/todos/pkg/session"
	"github.com/moov-io/todos/pkg/todo"

	"github.com/go-kit/kit/log"
)

// storage bundles the repositories of one backend.
type storage struct {
	accounts session.AccountStore
	todos    todo.Repository

	ping  func() error
	close func() error
}

func (s *storage) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

func openStorage(kind string, logger log.Logger) (*storage, error) {
	switch strings.ToLower(kind) {
	case "", "buntdb":
		path := getBuntDBPath()
		logger.Log("storage", fmt.Sprintf("using buntdb at %s", path))
		db, err := buntdbstore.Open(path)
		if err != nil {
			return nil, err
		}
		return &storage{
			accounts: db.Accounts(),
			todos:    db.Todos(),
			ping:     db.Ping,
			close:    db.Close,
		}, nil

	case "sqlite":
		db, err := migrate(getSqlitePath(), logger)
		if err != nil {
			return nil, err
		}
		ctx, stopMetrics := context.WithCancel(context.Background())
		go promMetricCollector{}.run(ctx, db)
		return &storage{
			accounts: &sqliteAccountRepository{db: db},
			todos:    &sqliteTodoRepository{db: db},
			ping:     db.Ping,
			close: func() error {
				stopMetrics()
				return db.Close()
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", kind)
}

func getBuntDBPath() string {
	path := os.Getenv("BUNTDB_PATH")
	if path == "" || strings.Contains(path, "..") {
		path = "todos.buntdb"
	}
	return path
}
