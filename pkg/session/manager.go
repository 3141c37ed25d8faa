// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package session implements login, logout and token resolution for
// accounts. The tokens listed on an Account are its sessions; there is no
// other session state.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/moov-io/todos/pkg/token"

	"github.com/go-kit/kit/log"
	"github.com/google/uuid"
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plaintext string) (string, error)

	// Verify reports whether digest was produced from plaintext. It must
	// compare in constant time and return false for malformed digests.
	Verify(plaintext, digest string) bool
}

// Codec issues and decodes bearer tokens.
type Codec interface {
	Issue(accountID, purpose string) (string, error)
	Decode(raw string) (token.Claims, error)
}

// Manager drives the token list of each account through login, logout and
// registration, and resolves presented tokens back to accounts.
//
// It holds no per-account state; concurrent calls are safe as long as the
// AccountStore's token mutations are atomic.
type Manager struct {
	accounts AccountStore
	hasher   Hasher
	codec    Codec
	logger   log.Logger

	now func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

func NewManager(accounts AccountStore, hasher Hasher, codec Codec, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Manager{
		accounts: accounts,
		hasher:   hasher,
		codec:    codec,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates an account for email and issues its first auth token.
// The password must already have passed input validation.
func (m *Manager) Register(ctx context.Context, email, plaintext string) (*Account, string, error) {
	email = strings.TrimSpace(email)
	if EmailKey(email) == "" {
		return nil, "", fmt.Errorf("register: invalid email")
	}
	digest, err := m.hasher.Hash(plaintext)
	if err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	acct := &Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    m.now().UTC(),
	}
	if err := m.accounts.Create(ctx, acct); err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	raw, err := m.issue(ctx, acct.ID)
	if err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}
	return acct.stripped(), raw, nil
}

// Login checks email and password and on success issues a new auth token.
//
// A wrong password for an existing account revokes every token that account
// holds before ErrInvalidCredentials is returned. An unknown email returns
// the same error and touches nothing.
func (m *Manager) Login(ctx context.Context, email, plaintext string) (*Account, string, error) {
	key := EmailKey(email)
	if key == "" {
		m.hasher.Verify(plaintext, m.dummy())
		return nil, "", ErrInvalidCredentials
	}

	acct, err := m.accounts.FindByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Keep the response time of unknown emails in line with known ones.
			m.hasher.Verify(plaintext, m.dummy())
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("login: %w", err)
	}

	if !m.hasher.Verify(plaintext, acct.PasswordHash) {
		if err := m.accounts.ClearTokens(ctx, acct.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, "", fmt.Errorf("login: revoking tokens: %w", err)
		}
		m.logger.Log("session", "failed login revoked all tokens", "accountId", acct.ID, "revoked", len(acct.Tokens))
		return nil, "", ErrInvalidCredentials
	}

	raw, err := m.issue(ctx, acct.ID)
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}
	return acct.stripped(), raw, nil
}

// Authenticate resolves a presented token to its account. The token must
// decode under our secret and still be listed on the account as an auth
// token; anything else is ErrUnauthenticated.
//
// The returned Account carries neither the password hash nor the tokens.
func (m *Manager) Authenticate(ctx context.Context, raw string) (*Account, error) {
	claims, err := m.codec.Decode(raw)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	acct, err := m.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !acct.hasToken(PurposeAuth, raw) {
		return nil, ErrUnauthenticated
	}
	return acct.stripped(), nil
}

// Logout revokes raw from the account. Revoking a token the account no
// longer holds succeeds.
func (m *Manager) Logout(ctx context.Context, accountID, raw string) error {
	if err := m.accounts.RemoveToken(ctx, accountID, raw); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (m *Manager) issue(ctx context.Context, accountID string) (string, error) {
	raw, err := m.codec.Issue(accountID, PurposeAuth)
	if err != nil {
		return "", err
	}
	entry := TokenEntry{Purpose: PurposeAuth, Token: raw}
	if err := m.accounts.AppendToken(ctx, accountID, entry); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return raw, nil
}

// dummy returns a digest no password matches, computed with the real hasher
// so verifying against it costs the same as a real check.
func (m *Manager) dummy() string {
	m.dummyOnce.Do(func() {
		bs := make([]byte, 16)
		if _, err := rand.Read(bs); err != nil {
			return
		}
		digest, err := m.hasher.Hash(hex.EncodeToString(bs))
		if err != nil {
			m.logger.Log("session", fmt.Sprintf("problem creating dummy digest: %v", err))
			return
		}
		m.dummyDigest = digest
	})
	return m.dummyDigest
}
