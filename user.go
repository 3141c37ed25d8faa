// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/moov-io/todos/pkg/session"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

// accountResponse is everything about an account a client may see.
type accountResponse struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

func newAccountResponse(a *session.Account) accountResponse {
	return accountResponse{
		ID:    a.ID,
		Email: a.Email,
	}
}

func addUserRoutes(router *mux.Router, logger log.Logger, auth authenticator) {
	router.Methods("GET").Path("/users/me").HandlerFunc(authGate(logger, auth, meRoute()))
}

func meRoute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, _, ok := accountFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, newAccountResponse(acct), "me")
	}
}
