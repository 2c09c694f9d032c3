// Package transport adapts github.com/quic-go/webtransport-go sessions and
// streams to moqsession.WebTransport. A live WebTransport stream is
// inherently asynchronous (Read/Write block on the network), while
// Session.Poll must never block, so every stream is fronted by a pump
// goroutine that turns its blocking Read/Write into the buffered,
// check-then-act operations the session core expects.
package transport

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/quic-go/webtransport-go"

	"github.com/zsiec/moqcore/internal/moqsession"
)

// maxOutboxBytes bounds how far a pending write may run ahead of what the
// underlying QUIC stream has actually accepted before StreamSendIfCapacity
// starts refusing further writes. webtransport-go does not expose the
// QUIC send window directly, so this stands in for it; see DESIGN.md.
const maxOutboxBytes = 1 << 20

// readChunk is the read size the pump goroutine requests per call.
const readChunk = 4096

var errUnknownSession = errors.New("transport: unknown session")
var errUnknownStream = errors.New("transport: unknown stream")

type sendCloser interface {
	io.Writer
	Close() error
}

type readCanceler interface {
	CancelRead(webtransport.StreamErrorCode)
}

type writeCanceler interface {
	CancelWrite(webtransport.StreamErrorCode)
}

// pumpedStream buffers one direction (or both) of a WebTransport stream so
// Adapter's RecvStream/StreamSend calls never block on the network.
type pumpedStream struct {
	sessionID moqsession.SessionID

	mu      sync.Mutex
	recvBuf []byte
	recvErr error

	send         sendCloser
	outbox       []byte
	sendErr      error
	finRequested bool
	wake         chan struct{}

	cancelRead  func(webtransport.StreamErrorCode)
	cancelWrite func(webtransport.StreamErrorCode)
}

func newPumpedStream(sessionID moqsession.SessionID, send sendCloser) *pumpedStream {
	return &pumpedStream{sessionID: sessionID, send: send, wake: make(chan struct{}, 1)}
}

func (s *pumpedStream) pumpRead(r io.Reader) {
	for {
		chunk := make([]byte, readChunk)
		n, err := r.Read(chunk)
		s.mu.Lock()
		if n > 0 {
			s.recvBuf = append(s.recvBuf, chunk[:n]...)
		}
		if err != nil {
			s.recvErr = err
		}
		done := err != nil
		s.mu.Unlock()
		if done {
			return
		}
	}
}

func (s *pumpedStream) pumpWrite() {
	for range s.wake {
		for {
			s.mu.Lock()
			if s.sendErr != nil {
				s.mu.Unlock()
				return
			}
			if len(s.outbox) == 0 {
				if s.finRequested {
					err := s.send.Close()
					if err != nil {
						s.sendErr = err
					}
					s.finRequested = false
				}
				s.mu.Unlock()
				break
			}
			chunk := s.outbox
			s.outbox = nil
			s.mu.Unlock()

			if _, err := s.send.Write(chunk); err != nil {
				s.mu.Lock()
				s.sendErr = err
				s.mu.Unlock()
				return
			}
		}
	}
}

func (s *pumpedStream) enqueue(b []byte, fin bool) {
	s.mu.Lock()
	s.outbox = append(s.outbox, b...)
	if fin {
		s.finRequested = true
	}
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// outboxLen reports the current backlog, used by StreamSendIfCapacity.
func (s *pumpedStream) outboxLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

// recv drains up to len(dst) buffered bytes, or surfaces the latched read
// error once the buffer is empty. It never blocks.
func (s *pumpedStream) recv(dst []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.recvBuf) > 0 {
		n := copy(dst, s.recvBuf)
		s.recvBuf = s.recvBuf[n:]
		return n, nil
	}
	if s.recvErr != nil {
		return 0, s.recvErr
	}
	return 0, moqsession.ErrStreamNotReady
}

func (s *pumpedStream) readable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recvBuf) > 0 || s.recvErr != nil
}

// Adapter implements moqsession.WebTransport over a set of live
// webtransport-go sessions, one Adapter serving every session a process
// accepts or dials.
type Adapter struct {
	mu            sync.Mutex
	log           *slog.Logger
	sessions      map[moqsession.SessionID]*webtransport.Session
	streams       map[moqsession.StreamID]*pumpedStream
	streamsBySess map[moqsession.SessionID][]moqsession.StreamID
	nextStreamID  moqsession.StreamID
	nextSessionID moqsession.SessionID
}

// NewAdapter returns an empty Adapter ready to register sessions with
// AddSession.
func NewAdapter() *Adapter {
	return &Adapter{
		log:           slog.With("component", "transport"),
		sessions:      make(map[moqsession.SessionID]*webtransport.Session),
		streams:       make(map[moqsession.StreamID]*pumpedStream),
		streamsBySess: make(map[moqsession.SessionID][]moqsession.StreamID),
	}
}

// AddSession registers a WebTransport session (accepted by a Server, or
// dialed directly) and starts pumping its incoming streams. The returned
// SessionID is what every moqsession.Session call against this Adapter
// must use to address it.
func (a *Adapter) AddSession(sess *webtransport.Session) moqsession.SessionID {
	a.mu.Lock()
	id := a.nextSessionID
	a.nextSessionID++
	a.sessions[id] = sess
	a.mu.Unlock()

	go a.acceptBidiStreams(id, sess)
	go a.acceptUniStreams(id, sess)
	return id
}

// RemoveSession forgets a session and its streams once it has closed.
func (a *Adapter) RemoveSession(id moqsession.SessionID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, id)
	for _, sid := range a.streamsBySess[id] {
		delete(a.streams, sid)
	}
	delete(a.streamsBySess, id)
}

func (a *Adapter) acceptBidiStreams(sessionID moqsession.SessionID, sess *webtransport.Session) {
	for {
		str, err := sess.AcceptStream(sess.Context())
		if err != nil {
			a.log.Debug("bidi stream accept loop ended", "session", uint64(sessionID), "error", err)
			return
		}
		a.adopt(sessionID, str, str)
	}
}

func (a *Adapter) acceptUniStreams(sessionID moqsession.SessionID, sess *webtransport.Session) {
	for {
		str, err := sess.AcceptUniStream(sess.Context())
		if err != nil {
			a.log.Debug("uni stream accept loop ended", "session", uint64(sessionID), "error", err)
			return
		}
		a.adopt(sessionID, str, nil)
	}
}

// adopt registers a stream, starting its read and/or write pump as needed.
func (a *Adapter) adopt(sessionID moqsession.SessionID, recv io.Reader, send sendCloser) moqsession.StreamID {
	ps := newPumpedStream(sessionID, send)
	if rc, ok := recv.(readCanceler); ok {
		ps.cancelRead = rc.CancelRead
	}
	if wc, ok := send.(writeCanceler); ok {
		ps.cancelWrite = wc.CancelWrite
	}

	a.mu.Lock()
	id := a.nextStreamID
	a.nextStreamID++
	a.streams[id] = ps
	a.streamsBySess[sessionID] = append(a.streamsBySess[sessionID], id)
	a.mu.Unlock()

	if recv != nil {
		go ps.pumpRead(recv)
	}
	if send != nil {
		go ps.pumpWrite()
	}
	return id
}

func (a *Adapter) getStream(id moqsession.StreamID) (*pumpedStream, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ps, ok := a.streams[id]
	return ps, ok
}

// OpenStream opens a new local stream on sessionID: bidirectional (for the
// control stream) or unidirectional (for an outbound data stream).
func (a *Adapter) OpenStream(sessionID moqsession.SessionID, bidi bool) (moqsession.StreamID, error) {
	a.mu.Lock()
	sess, ok := a.sessions[sessionID]
	a.mu.Unlock()
	if !ok {
		return 0, errUnknownSession
	}
	if bidi {
		str, err := sess.OpenStream()
		if err != nil {
			return 0, err
		}
		return a.adopt(sessionID, str, str), nil
	}
	str, err := sess.OpenUniStream()
	if err != nil {
		return 0, err
	}
	return a.adopt(sessionID, nil, str), nil
}

// StreamSend enqueues b for asynchronous delivery and reports it fully
// accepted; the pump goroutine writes it through, retrying nothing itself
// since webtransport-go's Write already blocks until the whole slice is
// written or the stream errors.
func (a *Adapter) StreamSend(id moqsession.StreamID, b []byte, fin bool) (int, error) {
	ps, ok := a.getStream(id)
	if !ok {
		return 0, errUnknownStream
	}
	ps.enqueue(b, fin)
	return len(b), nil
}

// StreamSendIfCapacity enqueues b only if doing so would not push the
// stream's backlog past maxOutboxBytes, returning moqsession.ErrNoCapacity
// otherwise so the caller retries the same buffer on a later poll tick.
func (a *Adapter) StreamSendIfCapacity(id moqsession.StreamID, b []byte, fin bool) error {
	ps, ok := a.getStream(id)
	if !ok {
		return errUnknownStream
	}
	if ps.outboxLen()+len(b) > maxOutboxBytes {
		return moqsession.ErrNoCapacity
	}
	ps.enqueue(b, fin)
	return nil
}

// RecvStream copies buffered bytes for id into buf without blocking.
func (a *Adapter) RecvStream(id moqsession.StreamID, sessionID moqsession.SessionID, buf []byte) (int, error) {
	ps, ok := a.getStream(id)
	if !ok {
		return 0, errUnknownStream
	}
	return ps.recv(buf)
}

// ReadableStreams lists every stream of sessionID with buffered bytes or a
// latched terminal read error waiting to be observed.
func (a *Adapter) ReadableStreams(sessionID moqsession.SessionID) []moqsession.StreamID {
	a.mu.Lock()
	ids := append([]moqsession.StreamID(nil), a.streamsBySess[sessionID]...)
	a.mu.Unlock()

	var out []moqsession.StreamID
	for _, id := range ids {
		ps, ok := a.getStream(id)
		if ok && ps.readable() {
			out = append(out, id)
		}
	}
	return out
}

// SessionIDs lists every session currently registered with this Adapter.
func (a *Adapter) SessionIDs() []moqsession.SessionID {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]moqsession.SessionID, 0, len(a.sessions))
	for id := range a.sessions {
		out = append(out, id)
	}
	return out
}

// StreamShutdown resets id's send side (if any) and stops its receive side
// (if any) with the given application error code.
func (a *Adapter) StreamShutdown(id moqsession.StreamID, code uint8) error {
	ps, ok := a.getStream(id)
	if !ok {
		return errUnknownStream
	}
	wtCode := webtransport.StreamErrorCode(code)
	if ps.cancelWrite != nil {
		ps.cancelWrite(wtCode)
	}
	if ps.cancelRead != nil {
		ps.cancelRead(wtCode)
	}

	ps.mu.Lock()
	ps.sendErr = errors.New("transport: stream shut down")
	ps.mu.Unlock()
	select {
	case ps.wake <- struct{}{}:
	default:
	}
	return nil
}

var _ moqsession.WebTransport = (*Adapter)(nil)
