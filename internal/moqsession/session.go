package moqsession

import (
	"errors"
	"io"
	"log/slog"
	"sort"

	"github.com/zsiec/moqcore/internal/moqerr"
	"github.com/zsiec/moqcore/internal/shortbuf"
	"github.com/zsiec/moqcore/internal/wire"
)

// ctrlBufLen is the control stream's scratch buffer size, matching
// session.rs's ctrl_buf: ShortBuf<1024>.
const ctrlBufLen = 1024

// SubscribeResult is the outcome of a SUBSCRIBE exchange, available via
// PollSubscribeResponse once the peer's SUBSCRIBE_OK or SUBSCRIBE_ERROR has
// been dispatched.
type SubscribeResult struct {
	TrackAlias uint64
	Err        error
}

// Session is the MoQ Transport session state machine: a single-threaded,
// poll-driven core with no internal goroutines or locks. All methods must be
// called from one goroutine at a time; callers that need concurrency (a
// poll loop plus application writers) must serialize their own access.
// Grounded on quiche_moq/session.rs's MoqTransportSession.
type Session struct {
	server    bool
	log       *slog.Logger
	sessionID SessionID
	config    Config

	controlStreamID *StreamID
	ctrlBuf         *shortbuf.Buf
	selectedVersion *wire.Version

	nextRequestID     uint64
	maxRequestID      uint64
	nextOutTrackAlias uint64

	inStreams map[StreamID]*inboundStream
	inTracks  map[uint64]*inboundTrack // keyed by track alias

	outTracks  map[uint64]*outboundTrack  // keyed by track alias
	outStreams map[uint64]*outboundStream // keyed by track alias

	pendingSubscribe             map[uint64]pendingSubscribe // keyed by request id
	pendingSubscribeResponses    map[uint64]SubscribeResult  // keyed by request id
	pendingStreams               map[uint64]StreamID         // keyed by track alias, read-ahead streams with no track yet
	pendingReceivedSubscriptions map[uint64]wire.Subscribe   // keyed by request id, server side
}

func newSession(server bool, sessionID SessionID, config Config) *Session {
	role := "client"
	if server {
		role = "server"
	}
	return &Session{
		server:    server,
		log:       slog.With("moq_session", uint64(sessionID), "role", role),
		sessionID: sessionID,
		config:    config,
		ctrlBuf:   shortbuf.New(ctrlBufLen),

		inStreams: make(map[StreamID]*inboundStream),
		inTracks:  make(map[uint64]*inboundTrack),

		outTracks:  make(map[uint64]*outboundTrack),
		outStreams: make(map[uint64]*outboundStream),

		pendingSubscribe:             make(map[uint64]pendingSubscribe),
		pendingSubscribeResponses:    make(map[uint64]SubscribeResult),
		pendingStreams:               make(map[uint64]StreamID),
		pendingReceivedSubscriptions: make(map[uint64]wire.Subscribe),
	}
}

// Connect opens the control stream and sends CLIENT_SETUP, starting a
// client-role session. Grounded on session.rs's connect().
func Connect(wt WebTransport, sessionID SessionID, config Config) (*Session, error) {
	s := newSession(false, sessionID, config)
	s.nextRequestID = 1

	id, err := wt.OpenStream(sessionID, true)
	if err != nil {
		return nil, moqerr.Wrap(moqerr.IO, "open control stream", err)
	}
	s.controlStreamID = &id

	maxReq := config.MaxRequestID
	if maxReq == 0 {
		maxReq = DefaultClientMaxRequestID
	}
	cs := wire.ClientSetup{
		SupportedVersions: config.SupportedVersions,
		SetupParameters:   wire.SetupParameters{MaxRequestID: &maxReq},
	}
	if err := s.sendControlMessage(wt, wire.ControlMessage{Kind: wire.KindClientSetup, ClientSetup: cs}); err != nil {
		return nil, err
	}
	s.log.Debug("sent CLIENT_SETUP", "versions", config.SupportedVersions)
	return s, nil
}

// Accept constructs a server-role session; the control stream is discovered
// lazily on the first Poll call, once the peer has opened it. Grounded on
// session.rs's accept().
func Accept(wt WebTransport, sessionID SessionID, config Config) (*Session, error) {
	s := newSession(true, sessionID, config)
	s.nextRequestID = 0
	return s, nil
}

func (s *Session) effectiveVersion() wire.Version {
	if s.selectedVersion != nil {
		return *s.selectedVersion
	}
	return s.config.SetupVersion
}

// SelectedVersion reports the version negotiated by SETUP, or false if
// negotiation hasn't completed yet.
func (s *Session) SelectedVersion() (wire.Version, bool) {
	if s.selectedVersion == nil {
		return 0, false
	}
	return *s.selectedVersion, true
}

func (s *Session) sendControlMessage(wt WebTransport, cm wire.ControlMessage) error {
	if s.controlStreamID == nil {
		return moqerr.New(moqerr.ProtocolViolation, "no control stream open")
	}
	data, err := cm.Serialize(s.effectiveVersion())
	if err != nil {
		return moqerr.Wrap(moqerr.ProtocolViolation, "serialize control message", err)
	}
	if _, err := wt.StreamSend(*s.controlStreamID, data, false); err != nil {
		return moqerr.Wrap(moqerr.IO, "control stream send", err)
	}
	return nil
}

// isFin reports whether err is the Fin variant, exploiting Error.Is's
// kind-only match.
func isFin(err error) bool {
	return errors.Is(err, moqerr.New(moqerr.Fin, ""))
}

// isDone reports whether err is the Done variant.
func isDone(err error) bool {
	return errors.Is(err, moqerr.New(moqerr.Done, ""))
}

// Poll drives the session: on the server it first looks for the peer's
// control stream, then it reads every currently-readable stream once,
// dispatching control messages and buffering data stream headers. It never
// blocks; a stream with nothing new to offer is simply skipped until the
// next call. Grounded on session.rs's poll().
func (s *Session) Poll(wt WebTransport) error {
	if s.server && s.controlStreamID == nil {
		s.discoverControlStream(wt)
		if s.controlStreamID == nil {
			return nil
		}
	}

	for _, id := range wt.ReadableStreams(s.sessionID) {
		if s.controlStreamID != nil && id == *s.controlStreamID {
			if err := s.pollControlStream(wt); err != nil {
				return err
			}
			continue
		}
		if err := s.pollDataStream(wt, id); err != nil {
			return err
		}
	}
	return nil
}

// discoverControlStream picks the lowest-numbered readable stream as the
// control stream the first time the server sees any readable stream. This
// is a simplification over a real bidi/uni stream-id classification (see
// DESIGN.md): the client opens its control stream before any data stream,
// so it is always the first stream the server ever observes.
func (s *Session) discoverControlStream(wt WebTransport) {
	ids := wt.ReadableStreams(s.sessionID)
	if len(ids) == 0 {
		return
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	id := ids[0]
	s.controlStreamID = &id
	s.log.Debug("discovered control stream", "stream", uint64(id))
}

func (s *Session) pollControlStream(wt WebTransport) error {
	for {
		cm, err := s.nextControlMessage(wt)
		if err != nil {
			if isDone(err) {
				return nil
			}
			return err
		}
		if err := s.dispatchControlMessage(wt, cm); err != nil {
			return err
		}
	}
}

// nextControlMessage tries to parse one control message from the buffered
// bytes, refilling from the control stream and retrying as long as the
// buffer holds an incomplete message. Grounded on session.rs's
// next_control_message().
func (s *Session) nextControlMessage(wt WebTransport) (wire.ControlMessage, error) {
	for {
		cm, n, err := wire.ParseControlMessage(s.ctrlBuf.Bytes(), s.effectiveVersion())
		if err == nil {
			s.ctrlBuf.Drain(n)
			return cm, nil
		}
		if !moqerr.IsBufferTooShort(err) {
			return wire.ControlMessage{}, err
		}

		r := &streamReader{wt: wt, id: *s.controlStreamID, sessionID: s.sessionID}
		_, rerr := s.ctrlBuf.Fill(r)
		switch {
		case rerr == nil:
			continue
		case errors.Is(rerr, io.EOF):
			return wire.ControlMessage{}, moqerr.New(moqerr.Fin, "control stream ended")
		case errors.Is(rerr, ErrStreamNotReady):
			return wire.ControlMessage{}, moqerr.New(moqerr.Done, "no control message available yet")
		case errors.Is(rerr, shortbuf.ErrFull):
			return wire.ControlMessage{}, moqerr.New(moqerr.InsufficientCapacity, "control stream scratch buffer full")
		default:
			return wire.ControlMessage{}, moqerr.Wrap(moqerr.IO, "control stream read failed", rerr)
		}
	}
}

func (s *Session) dispatchControlMessage(wt WebTransport, cm wire.ControlMessage) error {
	switch cm.Kind {
	case wire.KindServerSetup:
		return s.handleServerSetup(cm.ServerSetup)
	case wire.KindClientSetup:
		return s.handleClientSetup(wt, cm.ClientSetup)
	case wire.KindRequestBlocked:
		s.log.Info("peer reports request blocked", "maximum_request_id", cm.RequestBlocked.MaximumRequestID)
		return nil
	case wire.KindSubscribeOK:
		return s.handleSubscribeOK(cm.SubscribeOK)
	case wire.KindSubscribeError:
		return s.handleSubscribeError(cm.SubscribeError)
	case wire.KindSubscribeDone:
		s.log.Debug("received SUBSCRIBE_DONE", "request_id", cm.SubscribeDone.RequestID)
		return nil
	case wire.KindAnnounce:
		return s.handleAnnounce(wt, cm.Announce)
	case wire.KindAnnounceOK:
		s.log.Debug("received ANNOUNCE_OK")
		return nil
	case wire.KindSubscribe:
		s.pendingReceivedSubscriptions[cm.Subscribe.RequestID] = cm.Subscribe
		return nil
	case wire.KindUnsubscribeNamespace:
		s.log.Debug("received UNSUBSCRIBE_NAMESPACE", "namespace", cm.UnsubscribeNamespace.TrackNamespace.Strings())
		return nil
	default:
		return moqerr.New(moqerr.ProtocolViolation, "unhandled control message kind")
	}
}

func (s *Session) handleServerSetup(ss wire.ServerSetup) error {
	v := ss.SelectedVersion
	s.selectedVersion = &v
	maxReq := wire.DefaultMaxRequestID
	if ss.SetupParameters.MaxRequestID != nil {
		maxReq = *ss.SetupParameters.MaxRequestID
	}
	s.maxRequestID = maxReq
	s.log.Debug("received SERVER_SETUP", "version", v, "max_request_id", maxReq)
	return nil
}

func (s *Session) handleClientSetup(wt WebTransport, cs wire.ClientSetup) error {
	selected := s.config.SetupVersion
	found := false
	for _, v := range cs.SupportedVersions {
		if v == selected {
			found = true
			break
		}
	}
	if !found {
		return moqerr.New(moqerr.ProtocolViolation, "peer does not support our setup version")
	}
	s.selectedVersion = &selected

	maxReq := s.config.MaxRequestID
	if maxReq == 0 {
		maxReq = DefaultClientMaxRequestID
	}
	ss := wire.ServerSetup{SelectedVersion: selected, SetupParameters: wire.SetupParameters{MaxRequestID: &maxReq}}
	if err := s.sendControlMessage(wt, wire.ControlMessage{Kind: wire.KindServerSetup, ServerSetup: ss}); err != nil {
		return err
	}
	s.log.Debug("accepted CLIENT_SETUP", "selected_version", selected)
	return nil
}

func (s *Session) handleSubscribeOK(so wire.SubscribeOK) error {
	ps, ok := s.pendingSubscribe[so.RequestID]
	if !ok {
		return moqerr.New(moqerr.ProtocolViolation, "subscribe ok for unknown request id")
	}
	delete(s.pendingSubscribe, so.RequestID)

	var trackAlias uint64
	if s.effectiveVersion().Between(wire.Draft12, wire.Draft13) {
		if so.TrackAlias == nil {
			return moqerr.New(moqerr.ProtocolViolation, "subscribe ok missing track alias on draft 12-13")
		}
		trackAlias = *so.TrackAlias
	} else {
		if ps.trackAlias == nil {
			return moqerr.New(moqerr.ProtocolViolation, "pending subscribe missing stashed track alias")
		}
		trackAlias = *ps.trackAlias
	}

	s.inTracks[trackAlias] = newInboundTrack(trackAlias)
	if streamID, ok := s.pendingStreams[trackAlias]; ok {
		delete(s.pendingStreams, trackAlias)
		s.inTracks[trackAlias].markReadable(streamID)
	}
	s.pendingSubscribeResponses[so.RequestID] = SubscribeResult{TrackAlias: trackAlias}
	return nil
}

func (s *Session) handleSubscribeError(se wire.SubscribeError) error {
	if _, ok := s.pendingSubscribe[se.RequestID]; !ok {
		return moqerr.New(moqerr.ProtocolViolation, "subscribe error for unknown request id")
	}
	delete(s.pendingSubscribe, se.RequestID)
	s.pendingSubscribeResponses[se.RequestID] = SubscribeResult{
		Err: moqerr.New(moqerr.ProtocolViolation, se.ErrorReason),
	}
	return nil
}

func (s *Session) handleAnnounce(wt WebTransport, a wire.Announce) error {
	ao := wire.NewAnnounceOK(a.RequestID, &a.TrackNamespace)
	return s.sendControlMessage(wt, wire.ControlMessage{Kind: wire.KindAnnounceOK, AnnounceOK: ao})
}

// pollDataStream buffers whatever bytes are available on a non-control
// stream, parses its leading subgroup header once enough bytes have
// arrived, and marks the owning track readable (or, if no SUBSCRIBE_OK has
// registered that track yet, parks the stream in pendingStreams). Grounded
// on session.rs's poll() data-stream branch.
func (s *Session) pollDataStream(wt WebTransport, id StreamID) error {
	st, ok := s.inStreams[id]
	if !ok {
		st = newInboundStream(id, s.sessionID, s.effectiveVersion())
		s.inStreams[id] = st
	}

	if st.subgroup == nil {
		if err := st.ensureSubgroupHeader(wt); err != nil {
			if isDone(err) {
				return nil
			}
			if isFin(err) {
				delete(s.inStreams, id)
				return nil
			}
			return err
		}
	}

	trackAlias := st.subgroup.TrackAlias
	if track, ok := s.inTracks[trackAlias]; ok {
		track.markReadable(id)
		return nil
	}
	if parked, exists := s.pendingStreams[trackAlias]; exists && parked != id {
		return moqerr.New(moqerr.ProtocolViolation, "more than one read-ahead stream for track alias before SUBSCRIBE_OK")
	}
	s.pendingStreams[trackAlias] = id
	return nil
}

// Subscribe sends a SUBSCRIBE for namespace/name requesting delivery from
// the next group boundary, and returns the allocated request id. Grounded
// on session.rs's subscribe().
func (s *Session) Subscribe(wt WebTransport, namespace wire.Namespace, name []byte) (uint64, error) {
	if s.nextRequestID > s.maxRequestID && !s.config.IgnoreMaxRequestQuota {
		return 0, moqerr.New(moqerr.RequestBlocked, "request id quota exhausted")
	}
	requestID := s.nextRequestID
	s.nextRequestID += 2

	version := s.effectiveVersion()
	var trackAliasField *uint64
	if version.Between(wire.Draft07, wire.Draft11) {
		alias := requestID
		trackAliasField = &alias
	}
	var forward *uint8
	if version.Between(wire.Draft11, wire.Draft13) {
		f := uint8(0)
		forward = &f
	}

	sub := wire.Subscribe{
		RequestID:          requestID,
		TrackAlias:         trackAliasField,
		TrackNamespace:     wire.Tuple(namespace),
		TrackName:          name,
		SubscriberPriority: 1,
		GroupOrder:         wire.GroupOrderDescending,
		Forward:            forward,
		FilterType:         wire.FilterNextGroupStart,
	}
	if err := s.sendControlMessage(wt, wire.ControlMessage{Kind: wire.KindSubscribe, Subscribe: sub}); err != nil {
		return 0, err
	}
	s.pendingSubscribe[requestID] = newPendingSubscribe(requestID)
	return requestID, nil
}

// PendingSubscriptions lists, in ascending order, the request ids of
// SUBSCRIBE messages awaiting an AcceptSubscription call.
func (s *Session) PendingSubscriptions() []uint64 {
	var out []uint64
	for id := range s.pendingReceivedSubscriptions {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AcceptSubscription answers a parked SUBSCRIBE with SUBSCRIBE_OK, choosing
// the track alias per the version's rule (the subscriber's own choice on
// drafts 07-11, a freshly allocated one on drafts 12-13). Grounded on
// session.rs's accept_subscription().
func (s *Session) AcceptSubscription(wt WebTransport, requestID uint64) error {
	sub, ok := s.pendingReceivedSubscriptions[requestID]
	if !ok {
		return moqerr.New(moqerr.ProtocolViolation, "no pending received subscription for this request id")
	}
	delete(s.pendingReceivedSubscriptions, requestID)

	version := s.effectiveVersion()
	var trackAlias uint64
	var trackAliasField *uint64
	if version.Between(wire.Draft07, wire.Draft11) {
		if sub.TrackAlias == nil {
			return moqerr.New(moqerr.ProtocolViolation, "subscribe missing track alias on draft 07-11")
		}
		trackAlias = *sub.TrackAlias
	} else {
		trackAlias = s.nextOutTrackAlias
		s.nextOutTrackAlias++
		trackAliasField = &trackAlias
	}

	so := wire.SubscribeOK{RequestID: requestID, TrackAlias: trackAliasField, GroupOrder: wire.GroupOrderAscending}
	if err := s.sendControlMessage(wt, wire.ControlMessage{Kind: wire.KindSubscribeOK, SubscribeOK: so}); err != nil {
		return err
	}
	s.outTracks[trackAlias] = newOutboundTrack()
	return nil
}

// Readable lists, in ascending order, the track aliases with a readable
// inbound stream.
func (s *Session) Readable() []uint64 {
	var out []uint64
	for alias, t := range s.inTracks {
		if t.readable() {
			out = append(out, alias)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Writable lists, in ascending order, the track aliases accepting writes.
func (s *Session) Writable() []uint64 {
	var out []uint64
	for alias, t := range s.outTracks {
		if t.writable() {
			out = append(out, alias)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReadObjectHeader returns the next object header on trackAlias's current
// stream, advancing to the next parked stream whenever the current one
// finishes. Grounded on session.rs's read_obj_hdr().
func (s *Session) ReadObjectHeader(wt WebTransport, trackAlias uint64) (wire.ObjectHeader, error) {
	for {
		track, ok := s.inTracks[trackAlias]
		if !ok {
			return wire.ObjectHeader{}, moqerr.New(moqerr.Done, "no inbound track for this alias")
		}
		streamID, ok := track.currentStream()
		if !ok {
			return wire.ObjectHeader{}, moqerr.New(moqerr.Done, "no readable stream for this track")
		}
		st := s.inStreams[streamID]
		oh, err := st.readObjHeader(wt)
		if err == nil {
			return oh, nil
		}
		if isFin(err) {
			delete(s.inStreams, streamID)
			track.finStream(streamID)
			continue
		}
		return wire.ObjectHeader{}, err
	}
}

// ReadObjectPayload copies up to len(dst) bytes of the in-flight object's
// payload on trackAlias's current stream. Unlike ReadObjectHeader it does
// not retry past a finished stream; a Fin here means the caller should call
// ReadObjectHeader again to advance. Grounded on session.rs's
// read_obj_pld(), which is a single delegate call with no retry loop.
func (s *Session) ReadObjectPayload(wt WebTransport, trackAlias uint64, dst []byte) (int, error) {
	track, ok := s.inTracks[trackAlias]
	if !ok {
		return 0, moqerr.New(moqerr.Done, "no inbound track for this alias")
	}
	streamID, ok := track.currentStream()
	if !ok {
		return 0, moqerr.New(moqerr.Done, "no readable stream for this track")
	}
	return s.inStreams[streamID].readObjPayload(wt, dst)
}

func (s *Session) getOrOpenOutStream(wt WebTransport, trackAlias uint64) (*outboundStream, error) {
	track, ok := s.outTracks[trackAlias]
	if !ok {
		return nil, moqerr.New(moqerr.ProtocolViolation, "no outbound track for this alias")
	}
	if track.currentStreamID != nil {
		return s.outStreams[trackAlias], nil
	}
	id, err := wt.OpenStream(s.sessionID, false)
	if err != nil {
		return nil, moqerr.Wrap(moqerr.IO, "open outbound data stream", err)
	}
	st := newOutboundStream(id, s.sessionID, trackAlias, s.effectiveVersion())
	s.outStreams[trackAlias] = st
	track.currentStreamID = &id
	return st, nil
}

// SendObject writes a complete object (header and payload) to trackAlias's
// stream, opening one lazily if none is open yet.
func (s *Session) SendObject(wt WebTransport, trackAlias uint64, buf []byte) error {
	st, err := s.getOrOpenOutStream(wt, trackAlias)
	if err != nil {
		return err
	}
	return st.sendObj(wt, buf)
}

// SendObjectHeader writes an object header announcing a payload of the
// given size, opening the track's stream lazily if needed.
func (s *Session) SendObjectHeader(wt WebTransport, trackAlias uint64, size int) error {
	st, err := s.getOrOpenOutStream(wt, trackAlias)
	if err != nil {
		return err
	}
	return st.sendObjHdr(wt, size)
}

// SendObjectPayload writes a chunk of the current object's payload; it must
// follow a successful SendObjectHeader or SendObject call on this track.
func (s *Session) SendObjectPayload(wt WebTransport, trackAlias uint64, buf []byte) (int, error) {
	st, ok := s.outStreams[trackAlias]
	if !ok {
		return 0, moqerr.New(moqerr.ProtocolViolation, "no outbound stream open for this track")
	}
	return st.sendObjPld(wt, buf)
}

// TimeoutStream resets trackAlias's outbound stream with the delivery
// timeout reset code and forgets it, so the next send opens a fresh one.
// Grounded on session.rs's timeout_stream().
func (s *Session) TimeoutStream(wt WebTransport, trackAlias uint64) error {
	track, ok := s.outTracks[trackAlias]
	if !ok || track.currentStreamID == nil {
		return nil
	}
	id := *track.currentStreamID
	if err := wt.StreamShutdown(id, uint8(wire.ResetCodeDeliveryTimeout)); err != nil {
		return moqerr.Wrap(moqerr.IO, "reset outbound stream", err)
	}
	track.currentStreamID = nil
	delete(s.outStreams, trackAlias)
	return nil
}

// PollSubscribeResponse removes and returns the posted SUBSCRIBE_OK /
// SUBSCRIBE_ERROR result for requestID, if one has arrived.
func (s *Session) PollSubscribeResponse(requestID uint64) (SubscribeResult, bool) {
	res, ok := s.pendingSubscribeResponses[requestID]
	if ok {
		delete(s.pendingSubscribeResponses, requestID)
	}
	return res, ok
}

// Announce sends an ANNOUNCE for namespace, allocating a request id on
// drafts 11-13 (where the field is present) rather than the placeholder
// zero the reference implementation leaves as a todo.
func (s *Session) Announce(wt WebTransport, namespace wire.Namespace) error {
	var requestID *uint64
	if s.effectiveVersion().Between(wire.Draft11, wire.Draft13) {
		id := s.nextRequestID
		s.nextRequestID += 2
		requestID = &id
	}
	a := wire.Announce{RequestID: requestID, TrackNamespace: namespace}
	return s.sendControlMessage(wt, wire.ControlMessage{Kind: wire.KindAnnounce, Announce: a})
}
