// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/moov-io/todos/pkg/session"

	"github.com/mattn/go-sqlite3"
)

// sqliteAccountRepository implements session.AccountStore. Each token
// mutation is one UPDATE rewriting the tokens JSON array in place with
// sqlite's json functions, never a read followed by a write.
type sqliteAccountRepository struct {
	db *sql.DB
}

var _ session.AccountStore = (*sqliteAccountRepository)(nil)

func (r *sqliteAccountRepository) Create(ctx context.Context, a *session.Account) error {
	key := a.EmailKey()
	if a.ID == "" || key == "" {
		return fmt.Errorf("account id and email are required")
	}
	tokens := a.Tokens
	if tokens == nil {
		tokens = []session.TokenEntry{}
	}
	bs, err := json.Marshal(tokens)
	if err != nil {
		return err
	}

	query := `insert into accounts (account_id, email, email_key, password_hash, tokens, created_at) values (?, ?, ?, ?, ?, ?);`
	_, err = r.db.ExecContext(ctx, query, a.ID, a.Email, key, a.PasswordHash, string(bs), a.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return session.ErrConflict
		}
		return fmt.Errorf("problem creating account %s: %v", a.ID, err)
	}
	return nil
}

func (r *sqliteAccountRepository) FindByEmail(ctx context.Context, email string) (*session.Account, error) {
	query := `select account_id, email, password_hash, tokens, created_at from accounts where email_key = ? limit 1;`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, session.EmailKey(email)))
}

func (r *sqliteAccountRepository) FindByID(ctx context.Context, id string) (*session.Account, error) {
	query := `select account_id, email, password_hash, tokens, created_at from accounts where account_id = ? limit 1;`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteAccountRepository) scanAccount(row *sql.Row) (*session.Account, error) {
	var (
		a         session.Account
		tokens    string
		createdAt time.Time
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &tokens, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("problem reading account: %v", err)
	}
	if err := json.Unmarshal([]byte(tokens), &a.Tokens); err != nil {
		return nil, fmt.Errorf("problem decoding tokens of account %s: %v", a.ID, err)
	}
	a.CreatedAt = createdAt
	return &a, nil
}

func (r *sqliteAccountRepository) AppendToken(ctx context.Context, id string, entry session.TokenEntry) error {
	bs, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	query := `update accounts set tokens = json_insert(tokens, '$[#]', json(?)) where account_id = ?;`
	return r.exec(ctx, id, query, string(bs), id)
}

func (r *sqliteAccountRepository) RemoveToken(ctx context.Context, id string, raw string) error {
	query := `update accounts set tokens = (
  select json_group_array(json(value)) from json_each(accounts.tokens)
  where json_extract(value, '$.token') <> ?
) where account_id = ?;`
	return r.exec(ctx, id, query, raw, id)
}

func (r *sqliteAccountRepository) ClearTokens(ctx context.Context, id string) error {
	query := `update accounts set tokens = '[]' where account_id = ?;`
	return r.exec(ctx, id, query, id)
}

func (r *sqliteAccountRepository) exec(ctx context.Context, id, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("problem updating tokens of account %s: %v", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("problem updating tokens of account %s: %v", id, err)
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}
