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

	"github.com/moov-io/todos/pkg/session"

	"github.com/tidwall/buntdb"
)

type accountDocument struct {
	ID           string               `json:"_id"`
	Email        string               `json:"email"`
	EmailKey     string               `json:"emailKey"`
	PasswordHash string               `json:"password"`
	Tokens       []session.TokenEntry `json:"tokens"`
	CreatedAt    time.Time            `json:"createdAt"`
}

func (doc *accountDocument) account() *session.Account {
	return &session.Account{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Tokens:       doc.Tokens,
		CreatedAt:    doc.CreatedAt,
	}
}

// AccountStore implements session.AccountStore. An index key per login
// email points at the account document and enforces uniqueness.
type AccountStore struct {
	db *buntdb.DB
}

var _ session.AccountStore = (*AccountStore)(nil)

func (s *AccountStore) Create(_ context.Context, a *session.Account) error {
	key := a.EmailKey()
	if a.ID == "" || key == "" {
		return fmt.Errorf("account id and email are required")
	}
	doc := &accountDocument{
		ID:           a.ID,
		Email:        a.Email,
		EmailKey:     key,
		PasswordHash: a.PasswordHash,
		Tokens:       a.Tokens,
		CreatedAt:    a.CreatedAt,
	}
	if doc.Tokens == nil {
		doc.Tokens = []session.TokenEntry{}
	}
	bs, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *buntdb.Tx) error {
		if _, err := tx.Get(emailPrefix + key); err == nil {
			return session.ErrConflict
		} else if !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		if _, err := tx.Get(accountPrefix + a.ID); err == nil {
			return fmt.Errorf("account %s already exists", a.ID)
		}
		if _, _, err := tx.Set(emailPrefix+key, a.ID, nil); err != nil {
			return err
		}
		_, _, err := tx.Set(accountPrefix+a.ID, string(bs), nil)
		return err
	})
	if err != nil {
		if errors.Is(err, session.ErrConflict) {
			return err
		}
		return fmt.Errorf("problem creating account %s: %v", a.ID, err)
	}
	return nil
}

func (s *AccountStore) FindByEmail(_ context.Context, email string) (*session.Account, error) {
	var doc *accountDocument
	err := s.db.View(func(tx *buntdb.Tx) error {
		id, err := tx.Get(emailPrefix + session.EmailKey(email))
		if err != nil {
			return err
		}
		doc, err = getAccount(tx, id)
		return err
	})
	if err != nil {
		return nil, accountErr(err, "email lookup")
	}
	return doc.account(), nil
}

func (s *AccountStore) FindByID(_ context.Context, id string) (*session.Account, error) {
	var doc *accountDocument
	err := s.db.View(func(tx *buntdb.Tx) error {
		var err error
		doc, err = getAccount(tx, id)
		return err
	})
	if err != nil {
		return nil, accountErr(err, id)
	}
	return doc.account(), nil
}

func (s *AccountStore) AppendToken(_ context.Context, id string, entry session.TokenEntry) error {
	return s.mutate(id, func(doc *accountDocument) {
		doc.Tokens = append(doc.Tokens, entry)
	})
}

func (s *AccountStore) RemoveToken(_ context.Context, id string, raw string) error {
	return s.mutate(id, func(doc *accountDocument) {
		kept := make([]session.TokenEntry, 0, len(doc.Tokens))
		for _, e := range doc.Tokens {
			if e.Token != raw {
				kept = append(kept, e)
			}
		}
		doc.Tokens = kept
	})
}

func (s *AccountStore) ClearTokens(_ context.Context, id string) error {
	return s.mutate(id, func(doc *accountDocument) {
		doc.Tokens = []session.TokenEntry{}
	})
}

// mutate loads, changes and writes back an account document inside one
// write transaction.
func (s *AccountStore) mutate(id string, fn func(doc *accountDocument)) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		doc, err := getAccount(tx, id)
		if err != nil {
			return err
		}
		fn(doc)
		bs, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(accountPrefix+id, string(bs), nil)
		return err
	})
	if err != nil {
		return accountErr(err, id)
	}
	return nil
}

func getAccount(tx *buntdb.Tx, id string) (*accountDocument, error) {
	v, err := tx.Get(accountPrefix + id)
	if err != nil {
		return nil, err
	}
	var doc accountDocument
	if err := json.Unmarshal([]byte(v), &doc); err != nil {
		return nil, fmt.Errorf("decoding account: %v", err)
	}
	return &doc, nil
}

func accountErr(err error, what string) error {
	if errors.Is(err, buntdb.ErrNotFound) {
		return session.ErrNotFound
	}
	return fmt.Errorf("problem reading account %s: %v", what, err)
}
