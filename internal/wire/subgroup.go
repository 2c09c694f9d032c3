package wire

// SubgroupHeader is the header of a MoQ data stream carrying one subgroup's
// objects. Grounded on subgroup.rs.
type SubgroupHeader struct {
	Type              uint64
	TrackAlias        uint64
	GroupID           uint64
	SubgroupID        *uint64
	PublisherPriority uint8
}

// NewSubgroupHeader builds a subgroup header for the given version,
// selecting type 0x4 on drafts 07-10 or 0xD (subgroup id present,
// extensions present) on drafts 11-13, matching SubgroupHeader::new.
func NewSubgroupHeader(trackAlias, groupID, subgroupID uint64, version Version) SubgroupHeader {
	ty := uint64(0xD)
	if version.Between(Draft07, Draft10) {
		ty = subgroupStreamTypeDraft07to10
	}
	sg := subgroupID
	return SubgroupHeader{
		Type:       ty,
		TrackAlias: trackAlias,
		GroupID:    groupID,
		SubgroupID: &sg,
	}
}

// ExtensionsPresent reports whether object headers on a stream of this
// subgroup type carry an extension-headers block.
func ExtensionsPresent(ty uint64) bool {
	return ty == 0x9 || ty == 0xB || ty == 0xD
}

// SubgroupIDPresent reports whether the subgroup id is encoded explicitly
// on the wire for this subgroup type.
func SubgroupIDPresent(ty uint64) bool {
	return ty == 0xC || ty == 0xD
}

// SubgroupIDImplicitZero reports whether this subgroup type omits the
// subgroup id on the wire because it is implicitly zero.
func SubgroupIDImplicitZero(ty uint64) bool {
	return ty == 0x8 || ty == 0x9
}

func isSubgroupUniStreamType(ty uint64) bool {
	for _, t := range subgroupUniStreamTypes {
		if t == ty {
			return true
		}
	}
	return false
}

// ParseSubgroupHeader parses a subgroup stream header. Draft 07 carries an
// undocumented leading zero varint before the track alias (observed, not
// specified, in the IETF drafts; third-party implementations emit it for
// draft 07 compatibility). It is read and discarded here with no decoded
// meaning, per the Open Question resolution in DESIGN.md.
func ParseSubgroupHeader(r *reader, version Version) (SubgroupHeader, error) {
	ty, err := r.readVarint()
	if err != nil {
		return SubgroupHeader{}, err
	}
	switch {
	case version.Between(Draft07, Draft10):
		if ty != subgroupStreamTypeDraft07to10 {
			return SubgroupHeader{}, protocolViolation("expected subgroup stream type %#x, got %#x", subgroupStreamTypeDraft07to10, ty)
		}
	case version.Between(Draft11, Draft13):
		if !isSubgroupUniStreamType(ty) {
			return SubgroupHeader{}, protocolViolation("unrecognized subgroup stream type %#x", ty)
		}
	}

	if version == Draft07 {
		if _, err := r.readVarint(); err != nil { // leading zero placeholder
			return SubgroupHeader{}, err
		}
	}

	trackAlias, err := r.readVarint()
	if err != nil {
		return SubgroupHeader{}, err
	}
	groupID, err := r.readVarint()
	if err != nil {
		return SubgroupHeader{}, err
	}

	var subgroupID *uint64
	switch {
	case version.Between(Draft07, Draft10):
		v, err := r.readVarint()
		if err != nil {
			return SubgroupHeader{}, err
		}
		subgroupID = &v
	case SubgroupIDPresent(ty):
		v, err := r.readVarint()
		if err != nil {
			return SubgroupHeader{}, err
		}
		subgroupID = &v
	case SubgroupIDImplicitZero(ty):
		zero := uint64(0)
		subgroupID = &zero
	}

	priority, err := r.readByte()
	if err != nil {
		return SubgroupHeader{}, err
	}

	return SubgroupHeader{
		Type:              ty,
		TrackAlias:        trackAlias,
		GroupID:           groupID,
		SubgroupID:        subgroupID,
		PublisherPriority: priority,
	}, nil
}

// ParseSubgroupHeaderBytes parses a subgroup stream header from the start of
// data and reports how many bytes it consumed, for callers outside this
// package (internal/moqsession's stream reader) that only hold a []byte and
// not a *reader.
func ParseSubgroupHeaderBytes(data []byte, version Version) (SubgroupHeader, int, error) {
	r := newReader(data)
	sh, err := ParseSubgroupHeader(r, version)
	if err != nil {
		return SubgroupHeader{}, 0, err
	}
	return sh, r.off(), nil
}

// Serialize encodes a subgroup stream header.
func (sh SubgroupHeader) Serialize(version Version) []byte {
	w := &writer{}
	w.putVarint(sh.Type)
	if version == Draft07 {
		w.putVarint(0) // leading zero placeholder, see ParseSubgroupHeader
	}
	w.putVarint(sh.TrackAlias)
	w.putVarint(sh.GroupID)
	switch {
	case version.Between(Draft07, Draft10):
		w.putVarint(*sh.SubgroupID)
	case SubgroupIDPresent(sh.Type):
		w.putVarint(*sh.SubgroupID)
	}
	w.putByte(sh.PublisherPriority)
	return w.bytes()
}
