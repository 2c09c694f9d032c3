package wire

// Announce advertises a namespace's availability. Grounded on
// control_message/announce.rs.
type Announce struct {
	RequestID      *uint64 // nil on drafts 07-10, set on drafts 11-13
	TrackNamespace Namespace
	Parameters     Parameters
}

// Serialize encodes an ANNOUNCE message, including its header. The
// reference only implements FromBytes for this message; Serialize is added
// here to satisfy the round-trip invariant.
func (a Announce) Serialize(version Version) []byte {
	body := &writer{}
	if version.Between(Draft11, Draft13) {
		body.putVarint(*a.RequestID)
	}
	a.TrackNamespace.serialize(body)
	a.Parameters.serialize(body, version)
	return encodeControlMessage(msgAnnounce, version, body.bytes())
}

// ParseAnnounce parses an ANNOUNCE message including its header.
func ParseAnnounce(data []byte, version Version) (Announce, error) {
	r := newReader(data)
	header, err := parseControlMessageHeader(r, version)
	if err != nil {
		return Announce{}, err
	}
	if header.ty != msgAnnounce {
		return Announce{}, protocolViolation("expected ANNOUNCE type %#x, got %#x", msgAnnounce, header.ty)
	}
	var a Announce
	if version.Between(Draft11, Draft13) {
		id, err := r.readVarint()
		if err != nil {
			return Announce{}, err
		}
		a.RequestID = &id
	}
	a.TrackNamespace, err = parseNamespace(r)
	if err != nil {
		return Announce{}, err
	}
	a.Parameters, err = parseParameters(r, version)
	if err != nil {
		return Announce{}, err
	}
	return a, nil
}

// AnnounceOK confirms an ANNOUNCE. Grounded on
// control_message/announce_ok.rs. Field presence follows the reference's
// actual to_bytes match-arm logic, not its (backwards) doc comments: the
// namespace is echoed on drafts 07-10, the request id on drafts 11-13.
type AnnounceOK struct {
	RequestID      *uint64    // set on drafts 11-13
	TrackNamespace *Namespace // set on drafts 07-10
}

// NewAnnounceOK builds an AnnounceOK for the given request id (drafts
// 11-13) or namespace (drafts 07-10); pass whichever applies and leave the
// other nil.
func NewAnnounceOK(requestID *uint64, namespace *Namespace) AnnounceOK {
	return AnnounceOK{RequestID: requestID, TrackNamespace: namespace}
}

// Serialize encodes an ANNOUNCE_OK message, including its header. Unlike
// the reference's to_bytes, this omits the erroneous trailing version
// varint write the reference leaves in after the version-gated field.
func (ao AnnounceOK) Serialize(version Version) []byte {
	body := &writer{}
	switch {
	case version.Between(Draft07, Draft10):
		ao.TrackNamespace.serialize(body)
	case version.Between(Draft11, Draft13):
		body.putVarint(*ao.RequestID)
	}
	return encodeControlMessage(msgAnnounceOK, version, body.bytes())
}

// ParseAnnounceOK parses an ANNOUNCE_OK message including its header. The
// reference has no FromBytes implementation for this message at all; this
// is built from the structure implied by its ToBytes and the general
// control message framing.
func ParseAnnounceOK(data []byte, version Version) (AnnounceOK, error) {
	r := newReader(data)
	header, err := parseControlMessageHeader(r, version)
	if err != nil {
		return AnnounceOK{}, err
	}
	if header.ty != msgAnnounceOK {
		return AnnounceOK{}, protocolViolation("expected ANNOUNCE_OK type %#x, got %#x", msgAnnounceOK, header.ty)
	}
	var ao AnnounceOK
	switch {
	case version.Between(Draft07, Draft10):
		ns, err := parseNamespace(r)
		if err != nil {
			return AnnounceOK{}, err
		}
		ao.TrackNamespace = &ns
	case version.Between(Draft11, Draft13):
		id, err := r.readVarint()
		if err != nil {
			return AnnounceOK{}, err
		}
		ao.RequestID = &id
	}
	return ao, nil
}
