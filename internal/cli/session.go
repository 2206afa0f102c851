package cli

import (
	"context"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"orderconsole/internal/config"
	"orderconsole/internal/console"
	"orderconsole/internal/dates"
	"orderconsole/internal/fieldstore"
	"orderconsole/internal/restclient"
)

// session is one running console: a store, a dispatcher loop and its client.
type session struct {
	store      *fieldstore.MemoryStore
	dispatcher *console.Dispatcher
	logger     *log.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(cmd *cobra.Command, opts *options) (*session, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(cmd.ErrOrStderr())

	client, err := restclient.New(restclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Logger:  logger.WithField("component", "restclient"),
	})
	if err != nil {
		return nil, err
	}

	store := fieldstore.NewMemoryStore()
	reconciler := console.NewReconciler(store, dates.NewNormalizer(time.Local),
		console.WithItemDetails(cfg.ItemDetails),
		console.WithLogger(logger.WithField("component", "reconciler")),
	)
	dispatcher := console.NewDispatcher(store, client, reconciler, logger.WithField("component", "console"))

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		_ = dispatcher.Run(ctx)
	}()
	logger.WithFields(log.Fields{
		"base_url":     client.BaseURL(),
		"timeout":      cfg.Timeout,
		"item_details": cfg.ItemDetails,
	}).Debug("console ready")
	return s, nil
}

func (s *session) close() {
	s.cancel()
	<-s.done
}

// syncWriter serializes writes coming from completion goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
