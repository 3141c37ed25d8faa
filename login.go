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

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func addLoginRoutes(router *mux.Router, logger log.Logger, sessions *session.Manager) {
	router.Methods("POST").Path("/users/login").HandlerFunc(loginRoute(logger, sessions))
}

func loginRoute(logger log.Logger, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// read request body
		var login loginRequest
		if err := readJSON(r, &login); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		acct, raw, err := sessions.Login(r.Context(), login.Email, login.Password)
		if err != nil {
			if errors.Is(err, session.ErrInvalidCredentials) {
				// Unknown email and wrong password look the same to the client.
				authFailures.With("method", "web").Add(1)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			internalError(w, err, "login")
			return
		}

		// success route, let's finish!
		authSuccesses.With("method", "web").Add(1)
		tokenGenerations.With("method", "web").Add(1)
		logger.Log("login", "issued token", "accountId", acct.ID)

		w.Header().Set(tokenHeader, raw)
		writeJSON(w, newAccountResponse(acct), "login")
	}
}
