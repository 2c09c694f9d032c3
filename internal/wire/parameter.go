package wire

// keyValuePair is the draft 11-13 KEY_VALUE_PAIR structure: an even type id
// carries an inline varint value, an odd type id carries a varint-length-
// prefixed byte string.
type keyValuePair struct {
	ty        uint64
	varintVal uint64
	bytesVal  []byte
	isBytes   bool
}

func newVarintKVP(ty uint64, v uint64) keyValuePair {
	return keyValuePair{ty: ty, varintVal: v}
}

func newBytesKVP(ty uint64, v []byte) keyValuePair {
	return keyValuePair{ty: ty, bytesVal: v, isBytes: true}
}

func parseKeyValuePair(r *reader) (keyValuePair, error) {
	ty, err := r.readVarint()
	if err != nil {
		return keyValuePair{}, err
	}
	if ty%2 == 0 {
		v, err := r.readVarint()
		if err != nil {
			return keyValuePair{}, err
		}
		return newVarintKVP(ty, v), nil
	}
	v, err := r.readVarintBytes()
	if err != nil {
		return keyValuePair{}, err
	}
	return newBytesKVP(ty, append([]byte(nil), v...)), nil
}

func (kvp keyValuePair) serialize(w *writer) {
	w.putVarint(kvp.ty)
	if kvp.isBytes {
		w.putVarintBytes(kvp.bytesVal)
		return
	}
	w.putVarint(kvp.varintVal)
}

// Parameter is a single MoQ Transport parameter, used both as a SETUP
// parameter and inside a SUBSCRIBE/ANNOUNCE Parameters list. Its wire
// encoding is version-gated: drafts 07-10 always encode the value as a
// varint-length-prefixed byte string (even for parameters that carry a
// logically-integer value, which are packed as a single byte), while drafts
// 11-13 use the general KEY_VALUE_PAIR even/odd parity rule. This is an
// explicit override confirmed against the draft 07-10 Parameter codec,
// which never branches on type parity the way KeyValuePair does.
type Parameter struct {
	Type uint64
	// Exactly one of Bytes or set IsVarint is meaningful.
	Bytes    []byte
	Varint   uint64
	IsVarint bool
}

// NewBytesParameter builds a byte-string-valued parameter.
func NewBytesParameter(ty uint64, value []byte) Parameter {
	return Parameter{Type: ty, Bytes: value}
}

// NewVarintParameter builds a varint-valued parameter.
func NewVarintParameter(ty uint64, value uint64) Parameter {
	return Parameter{Type: ty, Varint: value, IsVarint: true}
}

func parseParameter(r *reader, version Version) (Parameter, error) {
	if version.Between(Draft07, Draft10) {
		ty, err := r.readVarint()
		if err != nil {
			return Parameter{}, err
		}
		val, err := r.readVarintBytes()
		if err != nil {
			return Parameter{}, err
		}
		return Parameter{Type: ty, Bytes: append([]byte(nil), val...)}, nil
	}

	kvp, err := parseKeyValuePair(r)
	if err != nil {
		return Parameter{}, err
	}
	if kvp.isBytes {
		return Parameter{Type: kvp.ty, Bytes: kvp.bytesVal}, nil
	}
	return Parameter{Type: kvp.ty, Varint: kvp.varintVal, IsVarint: true}, nil
}

func (p Parameter) serialize(w *writer, version Version) {
	if version.Between(Draft07, Draft10) {
		w.putVarint(p.Type)
		if p.IsVarint {
			// Draft 07-10 parameters always use length-prefixed bytes
			// framing regardless of logical value type; an integer value
			// is packed as a single byte, matching SetupParameters'
			// single-byte MAX_REQUEST_ID encoding for these drafts.
			w.putVarint(1)
			w.putByte(byte(p.Varint))
			return
		}
		w.putVarintBytes(p.Bytes)
		return
	}

	if p.IsVarint {
		newVarintKVP(p.Type, p.Varint).serialize(w)
		return
	}
	newBytesKVP(p.Type, p.Bytes).serialize(w)
}

// Parameters is an ordered parameter list, as carried by SUBSCRIBE and
// ANNOUNCE.
type Parameters []Parameter

func parseParameters(r *reader, version Version) (Parameters, error) {
	count, err := r.readVarint()
	if err != nil {
		return nil, err
	}
	params := make(Parameters, count)
	for i := range params {
		p, err := parseParameter(r, version)
		if err != nil {
			return nil, err
		}
		params[i] = p
	}
	return params, nil
}

func (ps Parameters) serialize(w *writer, version Version) {
	w.putVarint(uint64(len(ps)))
	for _, p := range ps {
		p.serialize(w, version)
	}
}

// SetupParameters is the named subset of SETUP parameters this package
// understands (path, max request id quota, and the draft-07-only role),
// plus any unrecognized parameters preserved verbatim for round-tripping.
type SetupParameters struct {
	Path              *string
	MaxRequestID      *uint64
	Role              *Role
	ExtraParameters   Parameters
}

func parseSetupParameters(r *reader, version Version) (SetupParameters, error) {
	var sp SetupParameters
	count, err := r.readVarint()
	if err != nil {
		return sp, err
	}
	for i := uint64(0); i < count; i++ {
		p, err := parseParameter(r, version)
		if err != nil {
			return sp, err
		}
		switch {
		case p.Type == paramMaxRequestID && version.Between(Draft07, Draft10) && !p.IsVarint:
			if len(p.Bytes) != 1 {
				return sp, protocolViolation("max_request_id setup parameter must be 1 byte on draft 07-10, got %d", len(p.Bytes))
			}
			v := uint64(p.Bytes[0])
			sp.MaxRequestID = &v
		case p.Type == paramMaxRequestID && version.Between(Draft11, Draft13) && p.IsVarint:
			v := p.Varint
			sp.MaxRequestID = &v
		case p.Type == paramPath && !p.IsVarint:
			s := string(p.Bytes)
			sp.Path = &s
		case p.Type == paramRole && version == Draft07 && !p.IsVarint:
			role, err := roleFromID(mustSingleVarint(p.Bytes))
			if err != nil {
				return sp, err
			}
			sp.Role = &role
		default:
			sp.ExtraParameters = append(sp.ExtraParameters, p)
		}
	}
	return sp, nil
}

// mustSingleVarint decodes a role id packed as draft 07-10 bytes encode it:
// the teacher's reference wraps the role byte string in its own Octets and
// parses a varint from it, which for the single-byte role ids in use
// (0x01-0x03) is simply the first byte's value.
func mustSingleVarint(b []byte) uint64 {
	r := newReader(b)
	v, err := r.readVarint()
	if err != nil {
		return 0
	}
	return v
}

func (sp SetupParameters) numParameters() int {
	n := len(sp.ExtraParameters)
	if sp.Path != nil {
		n++
	}
	if sp.MaxRequestID != nil {
		n++
	}
	if sp.Role != nil {
		n++
	}
	return n
}

func (sp SetupParameters) serialize(w *writer, version Version) {
	w.putVarint(uint64(sp.numParameters()))
	if sp.Path != nil {
		NewBytesParameter(paramPath, []byte(*sp.Path)).serialize(w, version)
	}
	if sp.MaxRequestID != nil {
		NewVarintParameter(paramMaxRequestID, *sp.MaxRequestID).serialize(w, version)
	}
	if sp.Role != nil {
		NewVarintParameter(paramRole, sp.Role.id()).serialize(w, version)
	}
	for _, p := range sp.ExtraParameters {
		p.serialize(w, version)
	}
}
