/*
Gramserver starts a gramlock HTTP server and begins listening for new
connections.

Usage:

	gramserver [flags]

Once started, gramserver listens for HTTP requests and serves the grammar
session API described in the project's server package: POST /login to
exchange the configured secret for a bearer token, /grammars for storing
named grammar definitions, and /sessions for creating, masking, advancing,
and checkpointing a component F Session per request.

The flags are:

	-v, --version
		Give the current version and then exit.

	-c, --config FILE
		Load server configuration from the given TOML file. Defaults to
		"gramserver.toml" in the current working directory.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address, overriding the config file's
		listen_address.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWTs, overriding the config
		file's secret. If not at least 32 bytes it is repeated until it is;
		the maximum size is 64 bytes.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/dekarrin/gramlock/internal/version"
	"github.com/dekarrin/gramlock/server"
	"github.com/dekarrin/gramlock/server/dao/sqlite"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version and then exit.")
	flagConfig  = pflag.StringP("config", "c", "gramserver.toml", "Load server configuration from the given TOML file.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address, overriding the config file.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token signing, overriding the config file.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (gramlock v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	cfg, err := server.LoadConfig(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		os.Exit(1)
	}
	if *flagListen != "" {
		cfg.ListenAddress = *flagListen
	}
	if *flagSecret != "" {
		cfg.Secret = *flagSecret
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: invalid config: %s\n", err.Error())
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0770); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not create data directory: %s\n", err.Error())
		os.Exit(1)
	}

	store, err := sqlite.NewDatastore(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not open datastore: %s\n", err.Error())
		os.Exit(1)
	}
	defer store.Close()

	srv, err := server.New(cfg, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not initialize server: %s\n", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.WithField("listen_address", cfg.ListenAddress).Info("starting gramlock server")
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("server exited with error")
	}
}
