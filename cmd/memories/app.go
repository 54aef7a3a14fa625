package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	client "github.com/memoriesapp/memories/client"
	"github.com/memoriesapp/memories/client/auth"
	"github.com/memoriesapp/memories/client/feed"
	"github.com/memoriesapp/memories/client/internal/config"
	"github.com/memoriesapp/memories/client/internal/localstate"
	"github.com/memoriesapp/memories/client/notify"
	"github.com/memoriesapp/memories/client/query"
	"github.com/memoriesapp/memories/client/session"
)

// app is one CLI invocation's object graph.
type app struct {
	cfg      *config.Config
	store    *session.SQLiteStore
	sessions *session.Manager
	sdk      *client.Client
	notes    *notify.Controller
	stopLog  func()
	address  string
}

func newApp(ctx context.Context, cfg *config.Config, stderr io.Writer) (*app, error) {
	path, err := localstate.SessionDBPath(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	store, err := session.OpenSQLiteStore(ctx, path)
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(store)
	if err := sessions.Init(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	sdk, err := client.New(cfg.APIURL,
		client.WithHTTPTimeout(cfg.HTTPTimeout),
		client.WithTokenSource(sessions.Token),
		client.WithDebugLogging(cfg.Debug),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	notes := notify.New(notify.WithAutoDismiss(cfg.NotifyDismiss))
	a := &app{cfg: cfg, store: store, sessions: sessions, sdk: sdk, notes: notes, address: query.RootPath}
	a.stopLog = printNotifications(notes, stderr)
	return a, nil
}

// Close drains pending like toggles before releasing the session store.
func (a *app) Close() {
	if err := a.sdk.Close(); err != nil {
		log.Warn().Err(err).Msg("closing client")
	}
	a.stopLog()
	a.notes.Close()
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("closing session store")
	}
}

// Navigate records where a controller sent the user.
func (a *app) Navigate(address string) {
	a.address = address
	log.Debug().Str("address", address).Msg("navigate")
}

func (a *app) feed() *feed.Controller {
	return feed.New(a.sdk, a.sessions, a.notes, feed.WithRequestTimeout(a.cfg.RequestTimeout))
}

func (a *app) auth() *auth.Controller {
	return auth.New(a.sdk, a.sessions, a, a.notes, auth.WithRequestTimeout(a.cfg.RequestTimeout))
}

// printNotifications writes every newly shown notification to w once.
func printNotifications(n *notify.Controller, w io.Writer) (cancel func()) {
	var mu sync.Mutex
	seen := map[notify.ID]bool{}
	return n.OnChange(func(active []notify.Notification) {
		mu.Lock()
		defer mu.Unlock()
		for _, x := range active {
			if seen[x.ID] {
				continue
			}
			seen[x.ID] = true
			fmt.Fprintf(w, "[%s] %s\n", x.Severity, x.Message)
		}
	})
}
