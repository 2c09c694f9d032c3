// Command moqd is a minimal MoQ Transport endpoint: it terminates
// WebTransport/HTTP3 connections, drives the SETUP handshake, and accepts
// whatever SUBSCRIBE/ANNOUNCE requests arrive, logging each step. It exists
// to exercise internal/transport and internal/moqsession end to end; it is
// not a relay or a media server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/moqcore/internal/certsutil"
	"github.com/zsiec/moqcore/internal/moqerr"
	"github.com/zsiec/moqcore/internal/moqsession"
	"github.com/zsiec/moqcore/internal/transport"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("generating self-signed certificate")
	cert, err := certsutil.Generate(14 * 24 * time.Hour)
	if err != nil {
		slog.Error("failed to generate cert", "error", err)
		os.Exit(1)
	}
	slog.Info("certificate generated",
		"fingerprint", cert.FingerprintBase64(),
		"expires", cert.NotAfter.Format(time.RFC3339),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	wtAddr := envOr("MOQ_ADDR", ":4443")
	pollInterval := 10 * time.Millisecond

	slog.Info("moqd starting", "version", version, "addr", wtAddr, "cert_hash", cert.FingerprintBase64())

	adapter := transport.NewAdapter()
	srv := transport.NewServer(transport.ServerConfig{
		Addr: wtAddr,
		Cert: cert.TLSCert,
		SessionConfig: func() moqsession.Config {
			return moqsession.DefaultConfig()
		},
		OnSession: func(ctx context.Context, sess *moqsession.Session, wt moqsession.WebTransport) {
			runSession(ctx, sess, wt, pollInterval)
		},
	}, adapter)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// runSession polls sess until it terminates or ctx is cancelled, logging
// each SUBSCRIBE it accepts so the endpoint's behavior is observable without
// a UI. Every pending subscription is accepted immediately; this binary
// demonstrates the protocol, it doesn't police it.
func runSession(ctx context.Context, sess *moqsession.Session, wt moqsession.WebTransport, pollInterval time.Duration) {
	log := slog.With("component", "moqd")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := sess.Poll(wt); err != nil {
			if errors.Is(err, moqerr.New(moqerr.Done, "")) || errors.Is(err, moqerr.ErrBufferTooShort) {
				continue
			}
			log.Info("session ended", "error", err)
			return
		}

		for _, requestID := range sess.PendingSubscriptions() {
			log.Info("accepting subscription", "request_id", requestID)
			if err := sess.AcceptSubscription(wt, requestID); err != nil {
				log.Warn("failed to accept subscription", "request_id", requestID, "error", err)
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
