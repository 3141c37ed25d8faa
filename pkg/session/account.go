// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package session

import (
	"context"
	"strings"
	"time"
)

// PurposeAuth tags tokens issued by Login and Register.
const PurposeAuth = "auth"

// Account is a registered user together with the tokens currently issued to
// it. The token list is the session table: a token authenticates only while
// it is listed here.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Tokens       []TokenEntry
	CreatedAt    time.Time
}

// TokenEntry is one issued token. Entries are kept in issuance order.
type TokenEntry struct {
	Purpose string `json:"access"`
	Token   string `json:"token"`
}

func (a *Account) EmailKey() string {
	return EmailKey(a.Email)
}

// hasToken reports whether raw is currently issued for purpose.
func (a *Account) hasToken(purpose, raw string) bool {
	for i := range a.Tokens {
		if a.Tokens[i].Purpose == purpose && a.Tokens[i].Token == raw {
			return true
		}
	}
	return false
}

// stripped returns a copy of a without credentials or tokens.
func (a *Account) stripped() *Account {
	return &Account{
		ID:        a.ID,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}

// EmailKey is the login key for an email address: trimmed and lowercased,
// nothing else. Accounts are unique on, and looked up by, this form.
// An address without exactly one '@' separating two non-empty parts
// yields "".
func EmailKey(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return email
}

// AccountStore persists accounts. Token mutations must each be a single
// atomic update of the stored account so concurrent logins and logouts on
// the same account never lose one another's writes.
//
// Every method returns an error wrapping ErrNotFound when the account does
// not exist.
type AccountStore interface {
	// Create stores a new account. An account with the same email key
	// already stored fails with ErrConflict.
	Create(ctx context.Context, a *Account) error

	// FindByEmail looks up an account by its email key.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)

	AppendToken(ctx context.Context, id string, entry TokenEntry) error

	// RemoveToken drops every entry whose token equals raw. Removing a
	// token that isn't listed is not an error.
	RemoveToken(ctx context.Context, id string, raw string) error

	ClearTokens(ctx context.Context, id string) error
}
