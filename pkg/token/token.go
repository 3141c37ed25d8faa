// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package token signs and verifies the bearer tokens handed out on login.
//
// Tokens are HS256 JWTs carrying an account id and a purpose tag. They have
// no expiry: a token stays valid for as long as the account still lists it.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("token secret cannot be empty")
)

// Claims are what a decoded token says about its holder.
type Claims struct {
	AccountID string
	Purpose   string
}

type jwtClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"_id"`
	Purpose   string `json:"access"`
}

// Codec issues and decodes tokens under a single HMAC secret. Processes
// sharing the secret accept each other's tokens.
type Codec struct {
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Codec{
		secret: key,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
		),
		now: time.Now,
	}, nil
}

// Issue returns a signed token for accountID and purpose. Each call embeds
// a random token id, so repeated calls never return the same string.
func (c *Codec) Issue(accountID, purpose string) (string, error) {
	if accountID == "" || purpose == "" {
		return "", fmt.Errorf("token: account id and purpose are required")
	}
	id, err := newTokenID()
	if err != nil {
		return "", fmt.Errorf("token: %w", err)
	}
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       id,
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
		AccountID: accountID,
		Purpose:   purpose,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies raw and returns its claims. Truncated, tampered or foreign
// tokens all return an error wrapping ErrInvalidToken.
func (c *Codec) Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}
	var claims jwtClaims
	tok, err := c.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.AccountID == "" || claims.Purpose == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{
		AccountID: claims.AccountID,
		Purpose:   claims.Purpose,
	}, nil
}

// newTokenID creates a random id for the jti claim.
func newTokenID() (string, error) {
	bs := make([]byte, 20)
	if _, err := rand.Read(bs); err != nil {
		return "", fmt.Errorf("generating token id: %v", err)
	}
	return hex.EncodeToString(bs), nil
}
