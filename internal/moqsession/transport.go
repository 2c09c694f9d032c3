package moqsession

import "errors"

// StreamID identifies a single QUIC/WebTransport stream within a session.
type StreamID uint64

// SessionID identifies a WebTransport session on the underlying connection.
type SessionID uint64

// ErrStreamNotReady is returned by WebTransport.RecvStream when a stream has
// no data available right now but has not finished. It is distinct from
// io.EOF, which signals the stream's FIN. Poll stops reading a stream for the
// current tick as soon as RecvStream returns (0, ErrStreamNotReady), so the
// result never risks a busy loop.
var ErrStreamNotReady = errors.New("moqsession: stream not ready")

// ErrNoCapacity is returned by WebTransport.StreamSendIfCapacity when the
// stream's current send window cannot take the whole of b; none of it was
// written, and the caller should retry on a later poll tick.
var ErrNoCapacity = errors.New("moqsession: stream has no send capacity")

// WebTransport is the collaborator contract a concrete transport (QUIC,
// WebTransport-over-HTTP3, or a test fake) must satisfy for Session to drive
// it. It is declared here, in the consumer package, rather than in
// internal/transport, so that this package's own test fake can implement it
// without importing internal/transport at all; the concrete adapter in
// internal/transport imports this package instead, keeping the dependency
// one-directional.
type WebTransport interface {
	// OpenStream opens a new stream on the given session, unidirectional
	// unless bidi is true, and returns its id.
	OpenStream(sessionID SessionID, bidi bool) (StreamID, error)
	// StreamSend writes b to the stream, optionally signaling FIN. It
	// returns the number of bytes accepted; a short write means the stream
	// is flow-control blocked and the remainder must be retried later.
	StreamSend(id StreamID, b []byte, fin bool) (int, error)
	// StreamSendIfCapacity writes b only if the whole of it fits in the
	// stream's current send window, returning ErrNoCapacity and leaving it
	// unsent otherwise. Used for object payload sends, which must not be
	// split according to spec.
	StreamSendIfCapacity(id StreamID, b []byte, fin bool) error
	// RecvStream reads into buf from the given stream of the given
	// session. It returns (0, ErrStreamNotReady) if no bytes are available
	// right now, or (n, io.EOF) if the stream's FIN has been reached (n may
	// be positive if the FIN arrived together with final bytes).
	RecvStream(id StreamID, sessionID SessionID, buf []byte) (int, error)
	// ReadableStreams lists the streams of sessionID that have unread
	// bytes buffered right now, or whose end (FIN or read error) has not
	// yet been returned by RecvStream.
	ReadableStreams(sessionID SessionID) []StreamID
	// SessionIDs lists every currently open WebTransport session.
	SessionIDs() []SessionID
	// StreamShutdown resets (for a send stream) or stops (for a receive
	// stream) id with the given application error code.
	StreamShutdown(id StreamID, code uint8) error
}
