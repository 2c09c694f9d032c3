package moqsession

import "sort"

// inboundTrack tracks one subscribed track's set of readable data streams.
// readableStreams is kept sorted ascending so currentStream always yields
// the oldest readable stream first, matching in_track.rs's SmallVec-based
// FIFO-by-insertion-order behavior (insertion is itself order-preserving
// since stream ids only increase).
type inboundTrack struct {
	trackAlias      uint64
	readableStreams []StreamID
}

func newInboundTrack(trackAlias uint64) *inboundTrack {
	return &inboundTrack{trackAlias: trackAlias}
}

// markReadable records id as having data ready, idempotently: inserting it
// in sorted position if not already present. Grounded on
// InTrack::mark_stream_readable's binary_search-then-insert.
func (t *inboundTrack) markReadable(id StreamID) {
	i := sort.Search(len(t.readableStreams), func(i int) bool {
		return t.readableStreams[i] >= id
	})
	if i < len(t.readableStreams) && t.readableStreams[i] == id {
		return
	}
	t.readableStreams = append(t.readableStreams, 0)
	copy(t.readableStreams[i+1:], t.readableStreams[i:])
	t.readableStreams[i] = id
}

// finStream removes id from the readable set wherever it sits, not only at
// the front, matching InTrack::fin_stream's retain-based removal: a stream
// can finish while a newer stream on the same track is already ahead of it
// in delivery order.
func (t *inboundTrack) finStream(id StreamID) {
	out := t.readableStreams[:0]
	for _, s := range t.readableStreams {
		if s != id {
			out = append(out, s)
		}
	}
	t.readableStreams = out
}

// readable reports whether this track has any stream with data ready.
func (t *inboundTrack) readable() bool {
	return len(t.readableStreams) > 0
}

// currentStream returns the oldest readable stream for this track, if any.
func (t *inboundTrack) currentStream() (StreamID, bool) {
	if len(t.readableStreams) == 0 {
		return 0, false
	}
	return t.readableStreams[0], true
}
