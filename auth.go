// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/moov-io/todos/pkg/session"

	"github.com/go-kit/kit/log"
)

type authenticator interface {
	Authenticate(ctx context.Context, raw string) (*session.Account, error)
}

type contextKey int

const (
	accountKey contextKey = iota
	tokenKey
)

// extractToken pulls the auth token from the incoming request: the x-auth
// header, or failing that an "Authorization: Bearer" header.
func extractToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	if v := strings.TrimSpace(r.Header.Get(tokenHeader)); v != "" {
		return v
	}
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}

// authGate wraps next so it only runs for requests carrying a currently
// issued token. The resolved account and the token are put on the request
// context; rejected requests get a 401 with no body.
func authGate(logger log.Logger, auth authenticator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := extractToken(r)
		if raw == "" {
			authFailures.With("method", "token").Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		acct, err := auth.Authenticate(r.Context(), raw)
		if err != nil {
			if errors.Is(err, session.ErrUnauthenticated) {
				authFailures.With("method", "token").Add(1)
				logger.Log("auth", "rejected token", "method", r.Method, "path", r.URL.Path)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			internalError(w, err, "auth")
			return
		}
		authSuccesses.With("method", "token").Add(1)

		ctx := context.WithValue(r.Context(), accountKey, acct)
		ctx = context.WithValue(ctx, tokenKey, raw)
		next(w, r.WithContext(ctx))
	}
}

// accountFromContext returns the account authGate resolved, if any.
func accountFromContext(ctx context.Context) (*session.Account, string, bool) {
	acct, ok := ctx.Value(accountKey).(*session.Account)
	if !ok || acct == nil {
		return nil, "", false
	}
	raw, _ := ctx.Value(tokenKey).(string)
	return acct, raw, true
}
