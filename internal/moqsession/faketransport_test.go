package moqsession

import (
	"io"
	"sort"
)

// fakePipe models one stream as two independent byte pipes, one per
// direction (side 0 writes into buf[0], side 1 reads it, and vice versa).
// It is a simplification of real reset semantics: StreamShutdown just sets
// the writer's fin flag early, so a reset and a clean FIN look the same to
// the reader, which is enough to exercise the "truncated object ends in Fin"
// path without modeling QUIC's RESET_STREAM error code.
type fakePipe struct {
	bidi        bool
	buf         [2][]byte
	fin         [2]bool
	finConsumed [2]bool
}

// fakeNetwork is the shared state behind a pair of fakeTransport endpoints,
// one per session side.
type fakeNetwork struct {
	sessionID SessionID
	streams   map[StreamID]*fakePipe
	nextID    StreamID
}

// fakeTransport is an in-memory WebTransport implementation used to drive
// Session end to end in tests, without any real QUIC/WebTransport stack.
type fakeTransport struct {
	net  *fakeNetwork
	side int
}

// newFakeTransportPair returns a connected client/server pair of
// fakeTransports sharing one session and one stream namespace.
func newFakeTransportPair(sessionID SessionID) (client *fakeTransport, server *fakeTransport) {
	net := &fakeNetwork{sessionID: sessionID, streams: make(map[StreamID]*fakePipe)}
	return &fakeTransport{net: net, side: 0}, &fakeTransport{net: net, side: 1}
}

func (f *fakeTransport) peer() int { return 1 - f.side }

func (f *fakeTransport) OpenStream(sessionID SessionID, bidi bool) (StreamID, error) {
	id := f.net.nextID
	f.net.nextID++
	f.net.streams[id] = &fakePipe{bidi: bidi}
	return id, nil
}

func (f *fakeTransport) StreamSend(id StreamID, b []byte, fin bool) (int, error) {
	p := f.net.streams[id]
	p.buf[f.side] = append(p.buf[f.side], b...)
	if fin {
		p.fin[f.side] = true
	}
	return len(b), nil
}

// StreamSendIfCapacity always succeeds in the fake: it has no flow control
// and therefore unlimited capacity.
func (f *fakeTransport) StreamSendIfCapacity(id StreamID, b []byte, fin bool) error {
	_, err := f.StreamSend(id, b, fin)
	return err
}

func (f *fakeTransport) RecvStream(id StreamID, sessionID SessionID, buf []byte) (int, error) {
	p := f.net.streams[id]
	if p == nil {
		return 0, ErrStreamNotReady
	}
	peer := f.peer()
	if len(p.buf[peer]) > 0 {
		n := copy(buf, p.buf[peer])
		p.buf[peer] = p.buf[peer][n:]
		return n, nil
	}
	if p.fin[peer] && !p.finConsumed[peer] {
		p.finConsumed[peer] = true
		return 0, io.EOF
	}
	return 0, ErrStreamNotReady
}

func (f *fakeTransport) ReadableStreams(sessionID SessionID) []StreamID {
	peer := f.peer()
	var out []StreamID
	for id, p := range f.net.streams {
		if len(p.buf[peer]) > 0 || (p.fin[peer] && !p.finConsumed[peer]) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (f *fakeTransport) SessionIDs() []SessionID {
	return []SessionID{f.net.sessionID}
}

func (f *fakeTransport) StreamShutdown(id StreamID, code uint8) error {
	p := f.net.streams[id]
	if p == nil {
		return nil
	}
	p.fin[f.side] = true
	return nil
}
