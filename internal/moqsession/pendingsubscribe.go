package moqsession

// pendingSubscribe tracks a SUBSCRIBE awaiting SUBSCRIBE_OK or
// SUBSCRIBE_ERROR. TrackAlias is stashed unconditionally at subscribe time
// (the request id itself, since drafts 07-11 have the subscriber choose the
// track alias) but is only consulted when the eventual SUBSCRIBE_OK is for
// a draft 07-11 session; on drafts 12-13 the publisher's own track_alias
// field in SUBSCRIBE_OK is authoritative instead. Grounded on
// pending_subscribe.rs.
type pendingSubscribe struct {
	trackAlias *uint64
}

func newPendingSubscribe(trackAlias uint64) pendingSubscribe {
	return pendingSubscribe{trackAlias: &trackAlias}
}
