package wire

// FilterType selects which portion of a track a SUBSCRIBE requests.
// Grounded on control_message/subscribe.rs's FilterType enum.
type FilterType int

const (
	FilterLargestObject FilterType = iota
	FilterNextGroupStart
	FilterAbsoluteStart
	FilterAbsoluteRange
)

// HasStartLocation reports whether this filter carries a start Location.
func (f FilterType) HasStartLocation() bool {
	return f == FilterAbsoluteStart || f == FilterAbsoluteRange
}

// HasEndGroup reports whether this filter carries an end group.
func (f FilterType) HasEndGroup() bool {
	return f == FilterAbsoluteRange
}

func (f FilterType) id() uint64 {
	switch f {
	case FilterNextGroupStart:
		return filterNextGroupStart
	case FilterAbsoluteStart:
		return filterAbsoluteStart
	case FilterAbsoluteRange:
		return filterAbsoluteRange
	default:
		return filterLargestObject
	}
}

func filterTypeFromID(id uint64) (FilterType, error) {
	switch id {
	case filterNextGroupStart:
		return FilterNextGroupStart, nil
	case filterLargestObject:
		return FilterLargestObject, nil
	case filterAbsoluteStart:
		return FilterAbsoluteStart, nil
	case filterAbsoluteRange:
		return FilterAbsoluteRange, nil
	default:
		return 0, protocolViolation("unknown filter type id %d", id)
	}
}

// Subscribe requests delivery of a track. Grounded on
// control_message/subscribe.rs.
type Subscribe struct {
	RequestID          uint64
	TrackAlias         *uint64 // set on drafts 07-11, nil on drafts 12-13
	TrackNamespace     Tuple
	TrackName          []byte
	SubscriberPriority uint8
	GroupOrder         uint8
	Forward            *uint8 // nil on drafts 07-10, set on drafts 11-13
	FilterType          FilterType
	StartLocation       *Location
	EndGroup            *uint64
	Parameters          Parameters
}

// FullTrackNameLen returns the combined byte length of the namespace tuple
// and track name, bounded by MaxFullTrackNameLen.
func (s Subscribe) FullTrackNameLen() int {
	n := len(s.TrackName)
	for _, part := range s.TrackNamespace {
		n += len(part)
	}
	return n
}

func (s Subscribe) validate() error {
	if len(s.TrackNamespace) < MinNamespaceTupleLen || len(s.TrackNamespace) > MaxNamespaceTupleLen {
		return protocolViolation("namespace tuple must have between %d and %d elements, got %d", MinNamespaceTupleLen, MaxNamespaceTupleLen, len(s.TrackNamespace))
	}
	if s.FullTrackNameLen() > MaxFullTrackNameLen {
		return protocolViolation("full track name exceeds %d bytes", MaxFullTrackNameLen)
	}
	return nil
}

// Serialize encodes a SUBSCRIBE message, including its control message
// header.
func (s Subscribe) Serialize(version Version) ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	body := &writer{}
	body.putVarint(s.RequestID)
	if version.Between(Draft07, Draft11) {
		body.putVarint(*s.TrackAlias)
	}
	s.TrackNamespace.serialize(body)
	body.putVarintBytes(s.TrackName)
	body.putByte(s.SubscriberPriority)
	body.putByte(s.GroupOrder)
	if version.Between(Draft11, Draft13) {
		body.putByte(*s.Forward)
	}
	body.putVarint(s.FilterType.id())
	if s.FilterType.HasStartLocation() {
		s.StartLocation.serialize(body)
	}
	if s.FilterType.HasEndGroup() {
		body.putVarint(*s.EndGroup)
	}
	s.Parameters.serialize(body, version)
	return encodeControlMessage(msgSubscribe, version, body.bytes()), nil
}

// ParseSubscribe parses a SUBSCRIBE message including its header.
func ParseSubscribe(data []byte, version Version) (Subscribe, error) {
	r := newReader(data)
	header, err := parseControlMessageHeader(r, version)
	if err != nil {
		return Subscribe{}, err
	}
	if header.ty != msgSubscribe {
		return Subscribe{}, protocolViolation("expected SUBSCRIBE type %#x, got %#x", msgSubscribe, header.ty)
	}
	var s Subscribe
	s.RequestID, err = r.readVarint()
	if err != nil {
		return Subscribe{}, err
	}
	if version.Between(Draft07, Draft11) {
		alias, err := r.readVarint()
		if err != nil {
			return Subscribe{}, err
		}
		s.TrackAlias = &alias
	}
	s.TrackNamespace, err = parseTuple(r)
	if err != nil {
		return Subscribe{}, err
	}
	trackName, err := r.readVarintBytes()
	if err != nil {
		return Subscribe{}, err
	}
	s.TrackName = append([]byte(nil), trackName...)
	priority, err := r.readByte()
	if err != nil {
		return Subscribe{}, err
	}
	s.SubscriberPriority = priority
	groupOrder, err := r.readByte()
	if err != nil {
		return Subscribe{}, err
	}
	s.GroupOrder = groupOrder
	if version.Between(Draft11, Draft13) {
		fwd, err := r.readByte()
		if err != nil {
			return Subscribe{}, err
		}
		s.Forward = &fwd
	}
	filterID, err := r.readVarint()
	if err != nil {
		return Subscribe{}, err
	}
	s.FilterType, err = filterTypeFromID(filterID)
	if err != nil {
		return Subscribe{}, err
	}
	if s.FilterType.HasStartLocation() {
		loc, err := parseLocation(r)
		if err != nil {
			return Subscribe{}, err
		}
		s.StartLocation = &loc
	}
	if s.FilterType.HasEndGroup() {
		eg, err := r.readVarint()
		if err != nil {
			return Subscribe{}, err
		}
		s.EndGroup = &eg
	}
	s.Parameters, err = parseParameters(r, version)
	if err != nil {
		return Subscribe{}, err
	}
	return s, nil
}

// GroupOrder values carried by SUBSCRIBE_OK.
const (
	GroupOrderAscending  uint8 = 0x1
	GroupOrderDescending uint8 = 0x2
)

// SubscribeOK confirms a subscription. Grounded on
// control_message/subscribe_ok.rs.
type SubscribeOK struct {
	RequestID       uint64
	TrackAlias      *uint64 // nil on drafts 07-11, set on drafts 12-13
	Expires         uint64
	GroupOrder      uint8
	LargestLocation *Location
	Parameters      Parameters
}

// NewSubscribeOK builds a SubscribeOK answering sm, mirroring
// SubscribeOkMessage::from's track_alias XOR invariant: exactly one of
// sm.TrackAlias (draft 07-11) or trackAlias (draft 12-13) must be set.
func NewSubscribeOK(sm Subscribe, trackAlias *uint64) SubscribeOK {
	return SubscribeOK{
		RequestID:  sm.RequestID,
		TrackAlias: trackAlias,
		GroupOrder: GroupOrderAscending,
	}
}

// Serialize encodes a SUBSCRIBE_OK message, including its header.
func (so SubscribeOK) Serialize(version Version) []byte {
	body := &writer{}
	body.putVarint(so.RequestID)
	if version.Between(Draft12, Draft13) {
		body.putVarint(*so.TrackAlias)
	}
	body.putVarint(so.Expires)
	body.putByte(so.GroupOrder)
	if so.LargestLocation != nil {
		body.putByte(1)
		so.LargestLocation.serialize(body)
	} else {
		body.putByte(0)
	}
	so.Parameters.serialize(body, version)
	return encodeControlMessage(msgSubscribeOK, version, body.bytes())
}

// ParseSubscribeOK parses a SUBSCRIBE_OK message including its header.
func ParseSubscribeOK(data []byte, version Version) (SubscribeOK, error) {
	r := newReader(data)
	header, err := parseControlMessageHeader(r, version)
	if err != nil {
		return SubscribeOK{}, err
	}
	if header.ty != msgSubscribeOK {
		return SubscribeOK{}, protocolViolation("expected SUBSCRIBE_OK type %#x, got %#x", msgSubscribeOK, header.ty)
	}
	var so SubscribeOK
	so.RequestID, err = r.readVarint()
	if err != nil {
		return SubscribeOK{}, err
	}
	if version.Between(Draft12, Draft13) {
		alias, err := r.readVarint()
		if err != nil {
			return SubscribeOK{}, err
		}
		so.TrackAlias = &alias
	}
	so.Expires, err = r.readVarint()
	if err != nil {
		return SubscribeOK{}, err
	}
	groupOrderByte, err := r.readByte()
	if err != nil {
		return SubscribeOK{}, err
	}
	if groupOrderByte != GroupOrderAscending && groupOrderByte != GroupOrderDescending {
		return SubscribeOK{}, protocolViolation("invalid group order byte %#x", groupOrderByte)
	}
	so.GroupOrder = groupOrderByte
	contentExists, err := r.readByte()
	if err != nil {
		return SubscribeOK{}, err
	}
	if contentExists == 1 {
		loc, err := parseLocation(r)
		if err != nil {
			return SubscribeOK{}, err
		}
		so.LargestLocation = &loc
	}
	so.Parameters, err = parseParameters(r, version)
	if err != nil {
		return SubscribeOK{}, err
	}
	return so, nil
}

// SubscribeError rejects a subscription. Grounded on
// control_message/subscribe_error.rs. The reference only implements
// FromBytes; this package adds Serialize too, since spec section 8 requires
// every control message to round-trip.
type SubscribeError struct {
	RequestID    uint64
	ErrorCode    uint64
	ErrorReason  string
	TrackAlias   *uint64 // set on drafts 07-11, nil on drafts 12-13
}

// Serialize encodes a SUBSCRIBE_ERROR message, including its header.
func (se SubscribeError) Serialize(version Version) []byte {
	body := &writer{}
	body.putVarint(se.RequestID)
	body.putVarint(se.ErrorCode)
	putReasonPhrase(body, se.ErrorReason)
	if version.Between(Draft07, Draft11) {
		body.putVarint(*se.TrackAlias)
	}
	return encodeControlMessage(msgSubscribeError, version, body.bytes())
}

// ParseSubscribeError parses a SUBSCRIBE_ERROR message including its header.
func ParseSubscribeError(data []byte, version Version) (SubscribeError, error) {
	r := newReader(data)
	header, err := parseControlMessageHeader(r, version)
	if err != nil {
		return SubscribeError{}, err
	}
	if header.ty != msgSubscribeError {
		return SubscribeError{}, protocolViolation("expected SUBSCRIBE_ERROR type %#x, got %#x", msgSubscribeError, header.ty)
	}
	var se SubscribeError
	se.RequestID, err = r.readVarint()
	if err != nil {
		return SubscribeError{}, err
	}
	se.ErrorCode, err = r.readVarint()
	if err != nil {
		return SubscribeError{}, err
	}
	se.ErrorReason, err = parseReasonPhrase(r)
	if err != nil {
		return SubscribeError{}, err
	}
	if version.Between(Draft07, Draft11) {
		alias, err := r.readVarint()
		if err != nil {
			return SubscribeError{}, err
		}
		se.TrackAlias = &alias
	}
	return se, nil
}
