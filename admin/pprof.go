// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package admin

import (
	"net/http/pprof"
	"os"
	"runtime"
	"strings"

	"github.com/gorilla/mux"
)

// profiles lists the named runtime profiles served under /debug/pprof/
// and whether each is on when its PPROF_<NAME> variable is unset.
//
// Heap and goroutine dumps hold account emails, password digests and
// session tokens, so they're only ever served from the admin listener.
var profiles = map[string]bool{
	"allocs":       true,
	"block":        true,
	"cmdline":      true,
	"goroutine":    true,
	"heap":         true,
	"mutex":        true,
	"profile":      true,
	"threadcreate": false,
	"trace":        false,
}

// pprofProfileEnabled reads PPROF_<NAME>: "yes" enables the profile,
// "no" disables it and anything else leaves it at zero.
func pprofProfileEnabled(name string, zero bool) bool {
	switch strings.ToLower(os.Getenv("PPROF_" + strings.ToUpper(name))) {
	case "yes":
		return true
	case "no":
		return false
	}
	return zero
}

func setProfileRates() {
	if pprofProfileEnabled("block", profiles["block"]) {
		runtime.SetBlockProfileRate(1)
	}
	if pprofProfileEnabled("mutex", profiles["mutex"]) {
		runtime.SetMutexProfileFraction(1)
	}
}

func addPprofRoutes(r *mux.Router) {
	r.HandleFunc("/debug/pprof/", pprof.Index)
	for name, zero := range profiles {
		if !pprofProfileEnabled(name, zero) {
			continue
		}
		switch name {
		case "cmdline":
			r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		case "profile":
			r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		case "trace":
			r.HandleFunc("/debug/pprof/trace", pprof.Trace)
		default:
			r.Handle("/debug/pprof/"+name, pprof.Handler(name))
		}
	}
}
