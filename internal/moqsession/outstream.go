package moqsession

import (
	"errors"

	"github.com/zsiec/moqcore/internal/moqerr"
	"github.com/zsiec/moqcore/internal/wire"
)

// outStreamState is the three-state cycle an outbound data stream moves
// through: the subgroup header is sent exactly once, then each object's
// header and payload alternate. Grounded on out_stream.rs's State enum.
type outStreamState int

const (
	stateNeedSubgroupHeader outStreamState = iota
	stateNeedObjectHeader
	stateInObjectPayload
)

// outboundStream is the send side of one data stream. Every object it
// carries uses group id 0, subgroup id 0, and object id 0: the reference
// hardcodes these for every object on every stream rather than maintaining
// counters, matching spec.md's single-stream-per-track egress scope (see
// DESIGN.md's Open Question resolutions).
type outboundStream struct {
	id            StreamID
	sessionID     SessionID
	version       wire.Version
	trackAlias    uint64
	subgroupType  uint64
	state         outStreamState
	remainingSend int
}

func newOutboundStream(id StreamID, sessionID SessionID, trackAlias uint64, version wire.Version) *outboundStream {
	sh := wire.NewSubgroupHeader(trackAlias, 0, 0, version)
	return &outboundStream{
		id:           id,
		sessionID:    sessionID,
		version:      version,
		trackAlias:   trackAlias,
		subgroupType: sh.Type,
		state:        stateNeedSubgroupHeader,
	}
}

// sendObjHdr drives the stream through any pending subgroup header send and
// then writes one object header announcing a payload of the given size.
// Grounded on out_stream.rs's send_obj_hdr.
func (s *outboundStream) sendObjHdr(wt WebTransport, size int) error {
	if size <= 0 {
		return moqerr.New(moqerr.ProtocolViolation, "object payload size must be positive")
	}
	for {
		switch s.state {
		case stateNeedSubgroupHeader:
			sh := wire.NewSubgroupHeader(s.trackAlias, 0, 0, s.version)
			data := sh.Serialize(s.version)
			if err := wt.StreamSendIfCapacity(s.id, data, false); err != nil {
				if errors.Is(err, ErrNoCapacity) {
					return moqerr.New(moqerr.Done, "no send capacity for subgroup header")
				}
				return moqerr.Wrap(moqerr.IO, "subgroup header send failed", err)
			}
			s.state = stateNeedObjectHeader
		case stateNeedObjectHeader:
			oh := wire.NewObjectHeader(0, size, s.subgroupType)
			data := oh.Serialize(s.version)
			if err := wt.StreamSendIfCapacity(s.id, data, false); err != nil {
				if errors.Is(err, ErrNoCapacity) {
					return moqerr.New(moqerr.Done, "no send capacity for object header")
				}
				return moqerr.Wrap(moqerr.IO, "object header send failed", err)
			}
			s.remainingSend = size
			s.state = stateInObjectPayload
			return nil
		case stateInObjectPayload:
			return moqerr.New(moqerr.UnfinishedPayload, "new object header requested before the previous object's payload was completed")
		}
	}
}

// sendObjPld writes buf as (a prefix of) the current object's remaining
// payload. buf must not exceed the remaining payload length, matching
// out_stream.rs's non-partial-send contract. Returns moqerr.Done if the
// stream has no send capacity right now; the caller should retry later with
// the same buf.
func (s *outboundStream) sendObjPld(wt WebTransport, buf []byte) (int, error) {
	if s.state != stateInObjectPayload {
		return 0, moqerr.New(moqerr.ProtocolViolation, "sendObjPld called with no object header sent")
	}
	if len(buf) > s.remainingSend {
		return 0, moqerr.New(moqerr.ProtocolViolation, "payload write exceeds the declared object payload length")
	}
	if err := wt.StreamSendIfCapacity(s.id, buf, false); err != nil {
		if errors.Is(err, ErrNoCapacity) {
			return 0, moqerr.New(moqerr.Done, "no send capacity for object payload")
		}
		return 0, moqerr.Wrap(moqerr.IO, "object payload send failed", err)
	}
	s.remainingSend -= len(buf)
	if s.remainingSend == 0 {
		s.state = stateNeedObjectHeader
	}
	return len(buf), nil
}

// sendObj writes a complete object (header and payload) in one call.
func (s *outboundStream) sendObj(wt WebTransport, buf []byte) error {
	if err := s.sendObjHdr(wt, len(buf)); err != nil {
		return err
	}
	n, err := s.sendObjPld(wt, buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return moqerr.New(moqerr.ProtocolViolation, "short object payload send")
	}
	return nil
}
