package moqsession

// outboundTrack is the publisher-side state for a track this session has
// accepted a subscription for: at most one outbound data stream at a time.
// Grounded on out_track.rs.
type outboundTrack struct {
	currentStreamID *StreamID
}

func newOutboundTrack() *outboundTrack {
	return &outboundTrack{}
}

// writable always reports true: spec.md and out_track.rs place no backlog
// or congestion gate here, leaving flow control entirely to
// WebTransport.StreamSendIfCapacity.
func (t *outboundTrack) writable() bool {
	return true
}
