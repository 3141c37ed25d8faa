// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// maxReadBytes is the number of bytes to read
	// from a request body. It's intended to be used
	// with an io.LimitReader
	maxReadBytes = 1 * 1024 * 1024

	// tokenHeader carries the auth token in both directions.
	tokenHeader = "x-auth"
)

var errMissingBody = errors.New("missing request body")

// read consumes an io.Reader (wrapping with io.LimitReader)
// and returns either the resulting bytes or a non-nil error.
func read(r io.Reader) ([]byte, error) {
	r = io.LimitReader(r, maxReadBytes)
	return io.ReadAll(r)
}

// readJSON reads the request body into v. Errors are the caller's fault
// and should be answered with encodeError.
func readJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errMissingBody
	}
	bs, err := read(r.Body)
	if err != nil {
		return fmt.Errorf("problem reading request: %v", err)
	}
	if len(bs) == 0 {
		return errMissingBody
	}
	if err := json.Unmarshal(bs, v); err != nil {
		return fmt.Errorf("invalid json: %v", err)
	}
	return nil
}

// encodeError JSON encodes the supplied error
//
// The HTTP status of "400 Bad Request" is written to the
// response.
func encodeError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}

func internalError(w http.ResponseWriter, err error, component string) {
	internalServerErrors.Add(1)
	logger.Log(component, err)
	w.WriteHeader(http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}, component string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log(component, fmt.Sprintf("problem writing response: %v", err))
	}
}
