package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/quic-go/webtransport-go"

	"github.com/zsiec/moqcore/internal/moqsession"
)

// mockStream is a minimal in-memory stand-in for a webtransport.Stream,
// grounded on _examples/zsiec-prism/internal/distribution/moq_session_test.go's
// mockControlStream: a bytes.Buffer pair plus no-op cancellation, with the
// cancel calls recorded so tests can assert StreamShutdown reached them.
type mockStream struct {
	r          *bytes.Buffer
	w          *bytes.Buffer
	closed     bool
	readCodes  []webtransport.StreamErrorCode
	writeCodes []webtransport.StreamErrorCode
}

func newMockStream(initial string) *mockStream {
	return &mockStream{r: bytes.NewBufferString(initial), w: &bytes.Buffer{}}
}

func (m *mockStream) Read(p []byte) (int, error)  { return m.r.Read(p) }
func (m *mockStream) Write(p []byte) (int, error) { return m.w.Write(p) }
func (m *mockStream) Close() error                { m.closed = true; return nil }
func (m *mockStream) CancelRead(code webtransport.StreamErrorCode) {
	m.readCodes = append(m.readCodes, code)
}
func (m *mockStream) CancelWrite(code webtransport.StreamErrorCode) {
	m.writeCodes = append(m.writeCodes, code)
}

// blockingReader never returns, modeling a stream with no data and no EOF
// yet; used to confirm RecvStream never blocks the caller even while a pump
// goroutine is parked in Read.
type blockingReader struct{ unblock chan struct{} }

func (b *blockingReader) Read(p []byte) (int, error) {
	<-b.unblock
	return 0, io.EOF
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestAdoptPumpsReadsIntoRecvBuffer(t *testing.T) {
	a := NewAdapter()
	ms := newMockStream("hello")
	id := a.adopt(1, ms, ms)

	waitFor(t, func() bool {
		ps, ok := a.getStream(id)
		return ok && ps.readable()
	})

	buf := make([]byte, 5)
	n, err := a.RecvStream(id, 1, buf)
	if err != nil {
		t.Fatalf("RecvStream: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q, want %q", buf[:n], "hello")
	}
}

func TestRecvStreamNonBlockingBeforeDataArrives(t *testing.T) {
	a := NewAdapter()
	br := &blockingReader{unblock: make(chan struct{})}
	id := a.adopt(1, br, nil)
	defer close(br.unblock)

	buf := make([]byte, 16)
	_, err := a.RecvStream(id, 1, buf)
	if !errors.Is(err, moqsession.ErrStreamNotReady) {
		t.Fatalf("expected ErrStreamNotReady, got %v", err)
	}
}

func TestRecvStreamSurfacesEOF(t *testing.T) {
	a := NewAdapter()
	ms := newMockStream("")
	id := a.adopt(1, ms, nil)

	waitFor(t, func() bool {
		ps, ok := a.getStream(id)
		return ok && ps.readable()
	})

	buf := make([]byte, 4)
	_, err := a.RecvStream(id, 1, buf)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestStreamSendWritesThroughPump(t *testing.T) {
	a := NewAdapter()
	ms := newMockStream("")
	id := a.adopt(1, ms, ms)

	if _, err := a.StreamSend(id, []byte("abc"), false); err != nil {
		t.Fatalf("StreamSend: %v", err)
	}
	waitFor(t, func() bool { return ms.w.Len() == 3 })
	if ms.w.String() != "abc" {
		t.Fatalf("got %q, want %q", ms.w.String(), "abc")
	}
}

func TestStreamSendFinClosesStream(t *testing.T) {
	a := NewAdapter()
	ms := newMockStream("")
	id := a.adopt(1, ms, ms)

	if _, err := a.StreamSend(id, []byte("x"), true); err != nil {
		t.Fatalf("StreamSend: %v", err)
	}
	waitFor(t, func() bool { return ms.closed })
}

func TestStreamSendIfCapacityRefusesOverBudget(t *testing.T) {
	a := NewAdapter()
	ms := newMockStream("")
	id := a.adopt(1, ms, ms)

	ps, _ := a.getStream(id)
	ps.mu.Lock()
	ps.outbox = make([]byte, maxOutboxBytes)
	ps.mu.Unlock()

	err := a.StreamSendIfCapacity(id, []byte("more"), false)
	if !errors.Is(err, moqsession.ErrNoCapacity) {
		t.Fatalf("expected ErrNoCapacity, got %v", err)
	}
}

func TestReadableStreamsReflectsSessionScoping(t *testing.T) {
	a := NewAdapter()
	msA := newMockStream("x")
	brB := &blockingReader{unblock: make(chan struct{})}
	defer close(brB.unblock)
	idA := a.adopt(1, msA, nil)
	idB := a.adopt(2, brB, nil)

	waitFor(t, func() bool {
		ps, ok := a.getStream(idA)
		return ok && ps.readable()
	})

	readableA := a.ReadableStreams(1)
	if len(readableA) != 1 || readableA[0] != idA {
		t.Fatalf("session 1 readable = %v, want [%d]", readableA, idA)
	}
	readableB := a.ReadableStreams(2)
	if len(readableB) != 0 {
		t.Fatalf("session 2 readable = %v, want none (idB=%d unread)", readableB, idB)
	}
}

func TestStreamShutdownCancelsBothDirections(t *testing.T) {
	a := NewAdapter()
	ms := newMockStream("unread")
	id := a.adopt(1, ms, ms)

	if err := a.StreamShutdown(id, 0x11); err != nil {
		t.Fatalf("StreamShutdown: %v", err)
	}
	if len(ms.readCodes) != 1 || ms.readCodes[0] != webtransport.StreamErrorCode(0x11) {
		t.Fatalf("unexpected read cancel codes: %v", ms.readCodes)
	}
	if len(ms.writeCodes) != 1 || ms.writeCodes[0] != webtransport.StreamErrorCode(0x11) {
		t.Fatalf("unexpected write cancel codes: %v", ms.writeCodes)
	}

	if _, err := a.StreamSend(id, []byte("late"), false); err != nil {
		t.Fatalf("StreamSend after shutdown should still accept the enqueue: %v", err)
	}
}

func TestUnknownStreamAndSessionErrors(t *testing.T) {
	a := NewAdapter()
	if _, err := a.OpenStream(99, true); !errors.Is(err, errUnknownSession) {
		t.Fatalf("expected errUnknownSession, got %v", err)
	}
	if _, err := a.StreamSend(99, nil, false); !errors.Is(err, errUnknownStream) {
		t.Fatalf("expected errUnknownStream, got %v", err)
	}
	if err := a.StreamShutdown(99, 0); !errors.Is(err, errUnknownStream) {
		t.Fatalf("expected errUnknownStream, got %v", err)
	}
}

func TestRemoveSessionForgetsItsStreams(t *testing.T) {
	a := NewAdapter()
	ms := newMockStream("x")
	id := a.adopt(1, ms, ms)
	a.mu.Lock()
	a.sessions[1] = nil
	a.mu.Unlock()

	a.RemoveSession(1)

	if _, ok := a.getStream(id); ok {
		t.Fatal("expected stream to be forgotten after RemoveSession")
	}
	if ids := a.SessionIDs(); len(ids) != 0 {
		t.Fatalf("expected no sessions left, got %v", ids)
	}
}
