// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/moov-io/todos/pkg/password"
	"github.com/moov-io/todos/pkg/session"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

const minPasswordLength = 6

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func addSignupRoutes(router *mux.Router, logger log.Logger, sessions *session.Manager) {
	router.Methods("POST").Path("/users").HandlerFunc(signupRoute(logger, sessions))
}

func signupRoute(logger log.Logger, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signup signupRequest
		if err := readJSON(r, &signup); err != nil {
			encodeError(w, err)
			return
		}
		signup.Email = strings.TrimSpace(signup.Email)
		if err := checkEmail(signup.Email); err != nil {
			encodeError(w, err)
			return
		}
		if err := checkPassword(signup.Password); err != nil {
			encodeError(w, err)
			return
		}

		acct, raw, err := sessions.Register(r.Context(), signup.Email, signup.Password)
		if err != nil {
			if errors.Is(err, session.ErrConflict) {
				encodeError(w, session.ErrConflict)
				return
			}
			internalError(w, err, "signup")
			return
		}
		tokenGenerations.With("method", "signup").Add(1)
		logger.Log("signup", "created account", "accountId", acct.ID)

		w.Header().Set(tokenHeader, raw)
		writeJSON(w, newAccountResponse(acct), "signup")
	}
}

// checkEmail returns an error when email isn't a bare address we can use as
// a login key.
func checkEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%q is not a valid email", email)
	}
	if session.EmailKey(email) == "" {
		return fmt.Errorf("%q is not a valid email", email)
	}
	return nil
}

func checkPassword(pass string) error {
	if len(pass) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(pass) > password.MaxLength {
		return fmt.Errorf("password must be at most %d bytes", password.MaxLength)
	}
	return nil
}
