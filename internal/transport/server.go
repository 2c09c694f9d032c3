package transport

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"

	"github.com/zsiec/moqcore/internal/moqsession"
)

// SessionErrorCode values sent to clients via CloseWithError when a session
// cannot be set up.
const (
	errSetupFailed webtransport.SessionErrorCode = 1
)

// ServerConfig holds the configuration for the WebTransport/HTTP3 listener.
type ServerConfig struct {
	// Addr is the UDP listen address, e.g. ":4443".
	Addr string
	// Cert is the TLS certificate presented for the QUIC handshake.
	Cert tls.Certificate
	// Path is the HTTP path WebTransport sessions are upgraded on.
	Path string
	// SessionConfig builds the moqsession.Config offered to each accepted
	// connection; called once per connection so per-connection overrides
	// (e.g. a fresh IgnoreMaxRequestQuota) are possible.
	SessionConfig func() moqsession.Config
	// OnSession is invoked once per accepted MoQ session, right after
	// moqsession.Accept and before any Poll, so SETUP is completed by the
	// callback's own Poll loop; it runs in its own goroutine and should not
	// return until the session is done.
	OnSession func(ctx context.Context, sess *moqsession.Session, wt moqsession.WebTransport)
}

// Server is a minimal WebTransport/HTTP3 listener that accepts connections,
// registers each with an Adapter, and hands a server-role moqsession.Session
// to ServerConfig.OnSession. Grounded on
// _examples/zsiec-prism/internal/distribution/server.go's http3.Server /
// webtransport.Server wiring, narrowed to this package's single concern
// (no REST API, no stream registry).
type Server struct {
	config  ServerConfig
	adapter *Adapter
	wtSrv   *webtransport.Server
}

// NewServer constructs a Server sharing the given Adapter, so callers can
// also dial out sessions through the same Adapter if needed.
func NewServer(config ServerConfig, adapter *Adapter) *Server {
	if config.Path == "" {
		config.Path = "/moq"
	}
	return &Server{config: config, adapter: adapter}
}

// Start listens and serves until ctx is cancelled, accepting one MoQ
// session per incoming WebTransport connection.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleUpgrade)

	s.wtSrv = &webtransport.Server{
		H3: http3.Server{
			Addr:      s.config.Addr,
			Handler:   mux,
			TLSConfig: &tls.Config{Certificates: []tls.Certificate{s.config.Cert}},
			QUICConfig: &quic.Config{
				MaxIdleTimeout: 30 * time.Second,
				Allow0RTT:      true,
			},
		},
		CheckOrigin: func(_ *http.Request) bool { return true },
	}

	slog.Info("moq transport server listening", "addr", s.config.Addr, "path", s.config.Path)

	stop := context.AfterFunc(ctx, func() { s.wtSrv.Close() })
	defer stop()

	err := s.wtSrv.ListenAndServe()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	wtSession, err := s.wtSrv.Upgrade(w, r)
	if err != nil {
		slog.Error("webtransport upgrade failed", "error", err)
		return
	}

	sessionID := s.adapter.AddSession(wtSession)
	slog.Info("moq session accepted", "session", uint64(sessionID), "remote", r.RemoteAddr)

	config := moqsession.DefaultConfig()
	if s.config.SessionConfig != nil {
		config = s.config.SessionConfig()
	}

	moqSess, err := moqsession.Accept(s.adapter, sessionID, config)
	if err != nil {
		slog.Error("moq session accept failed", "session", uint64(sessionID), "error", err)
		wtSession.CloseWithError(errSetupFailed, "setup failed")
		s.adapter.RemoveSession(sessionID)
		return
	}

	if s.config.OnSession != nil {
		s.config.OnSession(wtSession.Context(), moqSess, s.adapter)
	}
}
