// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/moov-io/todos/admin"
	"github.com/moov-io/todos/pkg/password"
	"github.com/moov-io/todos/pkg/session"
	"github.com/moov-io/todos/pkg/token"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/prometheus"
	"github.com/gorilla/mux"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

var (
	httpAddr    = flag.String("http.addr", ":8080", "HTTP listen address")
	adminAddr   = flag.String("admin.addr", ":9090", "Admin HTTP listen address")
	storageType = flag.String("storage", "buntdb", "Storage backend: buntdb or sqlite")

	logger log.Logger = log.NewNopLogger()

	// Metrics
	authSuccesses = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_successes",
		Help: "Count of successful authorizations",
	}, []string{"method"})
	authFailures = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_failures",
		Help: "Count of failed authorizations",
	}, []string{"method"})
	authInactivations = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_inactivations",
		Help: "Count of inactivated auths (i.e. user logout)",
	}, []string{"method"})

	tokenGenerations = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_token_generations",
		Help: "Count of auth tokens created",
	}, []string{"method"})

	internalServerErrors = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "http_errors",
		Help: "Count of how many 5xx errors we send out",
	}, nil)
)

const Version = "0.2.0-dev"

func main() {
	flag.Parse()

	// Setup logging, default to stdout
	logger = log.NewLogfmtLogger(os.Stderr)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)
	logger.Log("startup", fmt.Sprintf("Starting todos server version %s", Version))

	// Listen for application termination.
	errs := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	secret, err := tokenSecret()
	if err != nil {
		logger.Log("startup", err)
		os.Exit(1)
	}
	codec, err := token.NewCodec(secret)
	if err != nil {
		logger.Log("startup", err)
		os.Exit(1)
	}

	store, err := openStorage(*storageType, logger)
	if err != nil {
		logger.Log("storage", err)
		os.Exit(1)
	}
	defer store.Close()

	sessions := session.NewManager(store.accounts, password.NewHasher(bcryptCost()), codec, log.With(logger, "component", "session"))

	router := mux.NewRouter()
	addSignupRoutes(router, logger, sessions)
	addLoginRoutes(router, logger, sessions)
	addLogoutRoutes(router, logger, sessions)
	addUserRoutes(router, logger, sessions)
	addTodoRoutes(router, logger, store.todos)

	serve := newHTTPServer(*httpAddr, router)
	shutdownServer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := serve.Shutdown(ctx); err != nil {
			logger.Log("shutdown", err)
		}
	}

	adminServer := admin.NewServer(*adminAddr)
	adminServer.AddLivenessCheck(*storageType, store.ping)
	go func() {
		logger.Log("admin", fmt.Sprintf("Starting admin service on %s", adminServer.BindAddress()))
		if err := adminServer.Listen(); err != nil && err != http.ErrServerClosed {
			logger.Log("admin", "shutting down", "error", err)
		}
	}()

	go func() {
		logger.Log("transport", "HTTP", "addr", *httpAddr)
		if err := serve.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	if err := <-errs; err != nil {
		adminServer.Shutdown()
		shutdownServer()
		logger.Log("exit", err)
	}
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: handler,
		TLSConfig: &tls.Config{
			InsecureSkipVerify:       false,
			PreferServerCipherSuites: true,
			MinVersion:               tls.VersionTLS12,
		},
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// tokenSecret reads the HMAC key tokens are signed with.
func tokenSecret() ([]byte, error) {
	v := os.Getenv("TOKEN_SECRET")
	if v == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}
	return []byte(v), nil
}

// bcryptCost reads BCRYPT_COST, returning zero (the default cost) when unset
// or unparsable.
func bcryptCost() int {
	v := os.Getenv("BCRYPT_COST")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Log("startup", fmt.Sprintf("ignoring BCRYPT_COST=%q: %v", v, err))
		return 0
	}
	return n
}
