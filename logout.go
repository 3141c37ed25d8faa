// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"net/http"

	"github.com/moov-io/todos/pkg/session"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

func addLogoutRoutes(router *mux.Router, logger log.Logger, sessions *session.Manager) {
	router.Methods("DELETE").Path("/users/me/token").HandlerFunc(authGate(logger, sessions, logoutRoute(logger, sessions)))
}

func logoutRoute(logger log.Logger, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, raw, ok := accountFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := sessions.Logout(r.Context(), acct.ID, raw); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				// account vanished between authGate and here
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			internalError(w, err, "logout")
			return
		}
		authInactivations.With("method", "web").Add(1)
		logger.Log("logout", "revoked token", "accountId", acct.ID)
		w.WriteHeader(http.StatusOK)
	}
}
