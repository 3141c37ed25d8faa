// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/moov-io/todos/pkg/session"
	"github.com/moov-io/todos/pkg/todo"

	"github.com/go-kit/kit/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSqliteDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := migrate(filepath.Join(t.TempDir(), "todos.db"), log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSqlite__migrateTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.db")
	for i := 0; i < 2; i++ {
		db, err := migrate(path, log.NewNopLogger())
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}
}

func TestSqlite__metricCollector(t *testing.T) {
	db := createTestSqliteDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		promMetricCollector{interval: time.Millisecond}.run(ctx, db)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("collector didn't stop")
	}
}

func TestSqliteAccountRepository(t *testing.T) {
	r := &sqliteAccountRepository{db: createTestSqliteDB(t)}
	ctx := context.Background()

	_, err := r.FindByEmail(ctx, "dan@test.com")
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = r.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)

	acct := &session.Account{
		ID:           uuid.NewString(),
		Email:        "Dan@test.com",
		PasswordHash: "$2a$10$digest",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, r.Create(ctx, acct))

	found, err := r.FindByEmail(ctx, "dan@test.com")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, found.ID)
	assert.Equal(t, "Dan@test.com", found.Email)
	assert.Equal(t, acct.PasswordHash, found.PasswordHash)
	assert.Empty(t, found.Tokens)
	assert.True(t, acct.CreatedAt.Equal(found.CreatedAt))

	// same email key
	err = r.Create(ctx, &session.Account{
		ID:           uuid.NewString(),
		Email:        "DAN@test.com",
		PasswordHash: "$2a$10$digest",
		CreatedAt:    time.Now(),
	})
	assert.ErrorIs(t, err, session.ErrConflict)

	// dots and +suffix make a different address
	require.NoError(t, r.Create(ctx, &session.Account{
		ID:           uuid.NewString(),
		Email:        "d.an+two@test.com",
		PasswordHash: "$2a$10$digest",
		CreatedAt:    time.Now(),
	}))

	one := session.TokenEntry{Purpose: session.PurposeAuth, Token: "one"}
	two := session.TokenEntry{Purpose: session.PurposeAuth, Token: "two"}
	three := session.TokenEntry{Purpose: session.PurposeAuth, Token: "three"}
	require.NoError(t, r.AppendToken(ctx, acct.ID, one))
	require.NoError(t, r.AppendToken(ctx, acct.ID, two))
	require.NoError(t, r.AppendToken(ctx, acct.ID, three))

	found, err = r.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, []session.TokenEntry{one, two, three}, found.Tokens)

	require.NoError(t, r.RemoveToken(ctx, acct.ID, "two"))
	require.NoError(t, r.RemoveToken(ctx, acct.ID, "missing"))
	found, err = r.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, []session.TokenEntry{one, three}, found.Tokens)

	require.NoError(t, r.ClearTokens(ctx, acct.ID))
	found, err = r.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Tokens)

	// removing from an empty list keeps it a list
	require.NoError(t, r.RemoveToken(ctx, acct.ID, "one"))
	require.NoError(t, r.AppendToken(ctx, acct.ID, one))
	found, err = r.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, []session.TokenEntry{one}, found.Tokens)

	assert.ErrorIs(t, r.AppendToken(ctx, "missing", one), session.ErrNotFound)
	assert.ErrorIs(t, r.RemoveToken(ctx, "missing", "one"), session.ErrNotFound)
	assert.ErrorIs(t, r.ClearTokens(ctx, "missing"), session.ErrNotFound)
}

func TestSqliteAccountRepository__concurrentAppends(t *testing.T) {
	r := &sqliteAccountRepository{db: createTestSqliteDB(t)}
	ctx := context.Background()

	acct := &session.Account{
		ID:           uuid.NewString(),
		Email:        "dan@test.com",
		PasswordHash: "$2a$10$digest",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, r.Create(ctx, acct))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry := session.TokenEntry{Purpose: session.PurposeAuth, Token: uuid.NewString()}
			if err := r.AppendToken(ctx, acct.ID, entry); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	found, err := r.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Len(t, found.Tokens, 20)
}

func TestSqliteTodoRepository(t *testing.T) {
	r := &sqliteTodoRepository{db: createTestSqliteDB(t)}
	ctx := context.Background()

	todos, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)

	first, err := todo.New("First test todo")
	require.NoError(t, err)
	second, err := todo.New("Second test todo")
	require.NoError(t, err)
	require.NoError(t, r.Create(ctx, first))
	require.NoError(t, r.Create(ctx, second))

	todos, err = r.List(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, first.ID, todos[0].ID)
	assert.Equal(t, second.ID, todos[1].ID)

	text := "This should be the new text"
	updated, err := r.Update(ctx, first.ID, todo.Update{Text: &text, Completed: true})
	require.NoError(t, err)
	assert.Equal(t, text, updated.Text)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedAt)

	got, err := r.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	updated, err = r.Update(ctx, first.ID, todo.Update{})
	require.NoError(t, err)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.CompletedAt)

	empty := ""
	_, err = r.Update(ctx, first.ID, todo.Update{Text: &empty})
	assert.ErrorIs(t, err, todo.ErrEmptyText)

	deleted, err := r.Delete(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, deleted.ID)
	_, err = r.Get(ctx, second.ID)
	assert.ErrorIs(t, err, todo.ErrNotFound)

	for _, id := range []string{"123", uuid.NewString()} {
		_, err = r.Get(ctx, id)
		assert.ErrorIs(t, err, todo.ErrNotFound)
		_, err = r.Update(ctx, id, todo.Update{})
		assert.ErrorIs(t, err, todo.ErrNotFound)
		_, err = r.Delete(ctx, id)
		assert.ErrorIs(t, err, todo.ErrNotFound)
	}
}
