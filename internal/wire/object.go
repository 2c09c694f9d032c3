package wire

// ObjectHeader is the per-object header within a subgroup data stream.
// Grounded on object.rs, generalized from the reference's narrow
// {subgroupStreamTypeDraft07to10, 0xD} handling to the full version-gated
// extension-header presence rule (ExtensionsPresent).
type ObjectHeader struct {
	ID                uint64
	SubgroupType      uint64
	ExtensionHeaders  []Parameter
	PayloadLength     int
	Status            *uint64 // set only when PayloadLength == 0
}

// NewObjectHeader builds an object header for a payload of the given
// length on a stream of subgroupType.
func NewObjectHeader(id uint64, payloadLength int, subgroupType uint64) ObjectHeader {
	return ObjectHeader{ID: id, SubgroupType: subgroupType, PayloadLength: payloadLength}
}

// ParseObjectHeader parses an object header given the subgroup header of
// the stream it appears on, whose type selects whether extension headers
// are present.
func ParseObjectHeader(r *reader, version Version, subgroup SubgroupHeader) (ObjectHeader, error) {
	ty := subgroup.Type
	id, err := r.readVarint()
	if err != nil {
		return ObjectHeader{}, err
	}

	var extHeaders []Parameter
	if ExtensionsPresent(ty) {
		extLen, err := r.readVarint()
		if err != nil {
			return ObjectHeader{}, err
		}
		end := r.off() + int(extLen)
		for r.off() < end {
			kvp, err := parseKeyValuePair(r)
			if err != nil {
				return ObjectHeader{}, err
			}
			p := Parameter{Type: kvp.ty, IsVarint: !kvp.isBytes, Varint: kvp.varintVal, Bytes: kvp.bytesVal}
			extHeaders = append(extHeaders, p)
		}
		if r.off() != end {
			return ObjectHeader{}, protocolViolation("extension headers length mismatch")
		}
	}

	payloadLen, err := r.readVarint()
	if err != nil {
		return ObjectHeader{}, err
	}

	var status *uint64
	if payloadLen == 0 {
		s, err := r.readVarint()
		if err != nil {
			return ObjectHeader{}, err
		}
		status = &s
	}

	return ObjectHeader{
		ID:               id,
		SubgroupType:     ty,
		ExtensionHeaders: extHeaders,
		PayloadLength:    int(payloadLen),
		Status:           status,
	}, nil
}

// ParseObjectHeaderBytes parses an object header from the start of data and
// reports how many bytes it consumed, for callers outside this package that
// only hold a []byte and not a *reader.
func ParseObjectHeaderBytes(data []byte, version Version, subgroup SubgroupHeader) (ObjectHeader, int, error) {
	r := newReader(data)
	oh, err := ParseObjectHeader(r, version, subgroup)
	if err != nil {
		return ObjectHeader{}, 0, err
	}
	return oh, r.off(), nil
}

// Serialize encodes an object header. version is accepted for symmetry
// with the rest of the codec even though no field of ObjectHeader is
// currently version-gated beyond SubgroupType's own presence rule.
func (oh ObjectHeader) Serialize(version Version) []byte {
	w := &writer{}
	w.putVarint(oh.ID)
	if ExtensionsPresent(oh.SubgroupType) {
		extBody := &writer{}
		for _, p := range oh.ExtensionHeaders {
			if p.IsVarint {
				newVarintKVP(p.Type, p.Varint).serialize(extBody)
			} else {
				newBytesKVP(p.Type, p.Bytes).serialize(extBody)
			}
		}
		w.putVarint(uint64(len(extBody.bytes())))
		w.putBytes(extBody.bytes())
	}
	w.putVarint(uint64(oh.PayloadLength))
	if oh.PayloadLength == 0 && oh.Status != nil {
		w.putVarint(*oh.Status)
	}
	return w.bytes()
}
