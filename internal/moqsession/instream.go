package moqsession

import (
	"errors"
	"io"

	"github.com/zsiec/moqcore/internal/moqerr"
	"github.com/zsiec/moqcore/internal/shortbuf"
	"github.com/zsiec/moqcore/internal/wire"
)

// instreamBufLen is the scratch buffer size for subgroup and object
// headers, matching in_stream.rs's BUF_LEN.
const instreamBufLen = 100

// streamReader adapts a single (StreamID, SessionID) pair on a WebTransport
// into an io.Reader. It passes RecvStream's result through unchanged, so
// shortbuf.Buf.Fill's caller sees ErrStreamNotReady for "no data yet" and
// io.EOF for "end of stream" and can tell the two apart; this package's poll
// loop never blocks on a read.
type streamReader struct {
	wt        WebTransport
	id        StreamID
	sessionID SessionID
}

func (r *streamReader) Read(p []byte) (int, error) {
	return r.wt.RecvStream(r.id, r.sessionID, p)
}

// inboundStream is the receive side of one data stream: it accumulates
// bytes into a fixed scratch buffer until a subgroup header, then a
// sequence of object headers and payloads, can be parsed. Grounded on
// in_stream.rs's InStream.
type inboundStream struct {
	id        StreamID
	sessionID SessionID
	version   wire.Version

	buf              *shortbuf.Buf
	subgroup         *wire.SubgroupHeader
	remainingPayload int
	finSeen          bool
}

func newInboundStream(id StreamID, sessionID SessionID, version wire.Version) *inboundStream {
	return &inboundStream{
		id:        id,
		sessionID: sessionID,
		version:   version,
		buf:       shortbuf.New(instreamBufLen),
	}
}

// fill reads whatever bytes are currently available into the scratch
// buffer. It reports whether any new bytes were appended, so callers can
// distinguish "stream not ready" (no progress, no error) from a genuine
// parse failure after a successful read that still isn't enough.
func (s *inboundStream) fill(wt WebTransport) (progressed bool, err error) {
	r := &streamReader{wt: wt, id: s.id, sessionID: s.sessionID}
	n, rerr := s.buf.Fill(r)
	if rerr == nil {
		return n > 0, nil
	}
	if errors.Is(rerr, io.EOF) {
		s.finSeen = true
		return n > 0, nil
	}
	if errors.Is(rerr, ErrStreamNotReady) {
		return false, nil
	}
	if errors.Is(rerr, shortbuf.ErrFull) {
		return false, moqerr.New(moqerr.InsufficientCapacity, "subgroup/object header scratch buffer full")
	}
	return false, moqerr.Wrap(moqerr.IO, "data stream read failed", rerr)
}

// ensureSubgroupHeader parses the stream's one leading subgroup header, if
// it hasn't been already. Returns moqerr.Done if no header is available yet
// and the stream hasn't finished, or moqerr.Fin if the stream finished
// before a complete header arrived.
func (s *inboundStream) ensureSubgroupHeader(wt WebTransport) error {
	if s.subgroup != nil {
		return nil
	}
	for {
		sh, n, err := wire.ParseSubgroupHeaderBytes(s.buf.Bytes(), s.version)
		if err == nil {
			s.buf.Drain(n)
			s.subgroup = &sh
			return nil
		}
		if !moqerr.IsBufferTooShort(err) {
			return err
		}
		progressed, ferr := s.fill(wt)
		if ferr != nil {
			return ferr
		}
		if progressed {
			continue
		}
		if s.finSeen {
			return moqerr.New(moqerr.Fin, "stream ended before subgroup header completed")
		}
		return moqerr.New(moqerr.Done, "no subgroup header available yet")
	}
}

// readObjHeader parses the next object header on this stream, filling from
// wt as needed. Grounded on in_stream.rs's read_next_object_header /
// read_obj_hdr.
func (s *inboundStream) readObjHeader(wt WebTransport) (wire.ObjectHeader, error) {
	if err := s.ensureSubgroupHeader(wt); err != nil {
		return wire.ObjectHeader{}, err
	}
	for {
		oh, n, err := wire.ParseObjectHeaderBytes(s.buf.Bytes(), s.version, *s.subgroup)
		if err == nil {
			s.buf.Drain(n)
			s.remainingPayload = oh.PayloadLength
			return oh, nil
		}
		if !moqerr.IsBufferTooShort(err) {
			return wire.ObjectHeader{}, err
		}
		progressed, ferr := s.fill(wt)
		if ferr != nil {
			return wire.ObjectHeader{}, ferr
		}
		if progressed {
			continue
		}
		if s.finSeen {
			return wire.ObjectHeader{}, moqerr.New(moqerr.Fin, "stream ended mid object header")
		}
		return wire.ObjectHeader{}, moqerr.New(moqerr.Done, "no object header available yet")
	}
}

// readObjPayload copies up to len(dst) bytes (bounded by the remaining
// payload length) into dst. When the scratch buffer is empty and dst is
// large enough to take a read directly, it reads straight from wt into dst
// with no intermediate copy; otherwise it first drains whatever the scratch
// buffer already holds. Grounded on in_stream.rs's read_obj_pld.
func (s *inboundStream) readObjPayload(wt WebTransport, dst []byte) (int, error) {
	if s.remainingPayload == 0 {
		return 0, moqerr.New(moqerr.ProtocolViolation, "readObjPayload called with no remaining payload")
	}
	if len(dst) == 0 {
		return 0, moqerr.New(moqerr.ProtocolViolation, "readObjPayload called with empty destination")
	}
	n := len(dst)
	if n > s.remainingPayload {
		n = s.remainingPayload
	}
	dst = dst[:n]

	copied := 0
	if s.buf.Len() > 0 {
		buffered := s.buf.Drain(min(s.buf.Len(), n))
		copied = copy(dst, buffered)
	}
	if copied == n {
		s.remainingPayload -= copied
		return copied, nil
	}
	if s.finSeen {
		if copied == 0 {
			return 0, moqerr.New(moqerr.Fin, "stream ended mid object payload")
		}
		s.remainingPayload -= copied
		return copied, nil
	}

	r := &streamReader{wt: wt, id: s.id, sessionID: s.sessionID}
	read, rerr := r.Read(dst[copied:])
	if rerr != nil {
		switch {
		case errors.Is(rerr, io.EOF):
			s.finSeen = true
			if copied+read == 0 {
				return 0, moqerr.New(moqerr.Fin, "stream ended mid object payload")
			}
		case errors.Is(rerr, ErrStreamNotReady):
			if copied == 0 {
				return 0, moqerr.New(moqerr.Done, "no payload bytes available yet")
			}
		default:
			return 0, moqerr.Wrap(moqerr.IO, "data stream read failed", rerr)
		}
	}
	total := copied + read
	s.remainingPayload -= total
	return total, nil
}
