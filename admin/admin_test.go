// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdmin__live(t *testing.T) {
	svc := NewServer("")
	if addr := svc.BindAddress(); addr != ":9090" {
		t.Errorf("got %s", addr)
	}

	check := func() error { return nil }
	svc.AddLivenessCheck("buntdb", func() error { return check() })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/live", nil)
	svc.handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("got %d", w.Code)
	}

	check = func() error { return errors.New("database is closed") }
	w = httptest.NewRecorder()
	svc.handler().ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("got %d", w.Code)
	}
	var results map[string]string
	if err := json.NewDecoder(w.Body).Decode(&results); err != nil {
		t.Fatal(err)
	}
	if v := results["buntdb"]; v != "database is closed" {
		t.Errorf("got %q", v)
	}
}

func TestAdmin__metrics(t *testing.T) {
	svc := NewServer(":0")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	svc.handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("got %d", w.Code)
	}
}

func TestAdmin__pprofProfileEnabled(t *testing.T) {
	cases := []struct {
		env      string
		zero     bool
		expected bool
	}{
		{"", true, true},
		{"", false, false},
		{"yes", false, true},
		{"YES", false, true},
		{"no", true, false},
		{"maybe", true, true},
	}
	for i := range cases {
		t.Setenv("PPROF_TRACE", cases[i].env)
		if v := pprofProfileEnabled("trace", cases[i].zero); v != cases[i].expected {
			t.Errorf("env=%q zero=%v got %v", cases[i].env, cases[i].zero, v)
		}
	}
}

func TestAdmin__pprofRoutes(t *testing.T) {
	t.Setenv("PPROF_CMDLINE", "")
	t.Setenv("PPROF_TRACE", "")
	svc := NewServer(":0")

	w := httptest.NewRecorder()
	svc.handler().ServeHTTP(w, httptest.NewRequest("GET", "/debug/pprof/cmdline", nil))
	if w.Code != http.StatusOK {
		t.Errorf("cmdline: got %d", w.Code)
	}

	w = httptest.NewRecorder()
	svc.handler().ServeHTTP(w, httptest.NewRequest("GET", "/debug/pprof/trace", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("trace: got %d", w.Code)
	}
}
