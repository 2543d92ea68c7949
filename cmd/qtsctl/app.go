package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spacex-maker/qts-backend-web-sub004/pkg/config"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/environment"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/httpclient"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/logger"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/notify"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/render"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/session"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// app is the composition root: one of each collaborator per process.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    storage.Store
	resolver *environment.Resolver
	session  *session.Session
	client   *httpclient.Client
	out      io.Writer
	errOut   io.Writer
}

func newApp(cfg *config.Config, out, errOut io.Writer) (*app, error) {
	log, err := logger.New(cfg.LogLevel, []string{"stderr"}, []string{"stderr"})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var store storage.Store
	if ephemeral {
		store = storage.NewMemoryStore()
	} else {
		fs, err := storage.NewFileStore(cfg.StateFile())
		if err != nil {
			return nil, err
		}
		store = fs
	}

	notifier := notify.NewTerminal(errOut)

	resolver := environment.NewResolver(environment.ResolverOptions{
		Registry: cfg.Registry(),
		Store:    store,
		Hostname: cfg.Hostname,
		Notifier: notifier,
		Logger:   log.Named("environment"),
	})

	sess := session.New(store, log.Named("session"))

	client, err := httpclient.New(httpclient.Options{
		Resolver:  resolver,
		Session:   sess,
		Notifier:  notifier,
		Logger:    log.Named("http"),
		Timeout:   cfg.Timeout,
		Whitelist: cfg.Whitelist,
		LoginPath: cfg.LoginPath,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		OnUnauthenticated: func(ctx context.Context) {
			fmt.Fprintln(errOut, notify.MessageStyle.Render("  Run `qtsctl login` to sign in again."))
		},
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		resolver: resolver,
		session:  sess,
		client:   client,
		out:      out,
		errOut:   errOut,
	}, nil
}

// printData writes envelope data to stdout, highlighted when stdout is a
// terminal.
func (a *app) printData(data []byte) {
	if plain || !isTerminal(os.Stdout) {
		fmt.Fprintln(a.out, render.Plain(data))
		return
	}
	fmt.Fprintln(a.out, render.JSON(data, 100))
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
