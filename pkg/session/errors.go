// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package session

import "errors"

var (
	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrUnauthenticated = errors.New("unauthenticated")

	// store errors
	ErrNotFound = errors.New("account not found")
	ErrConflict = errors.New("email already in use")
)
