package wire

// controlMessageHeader is the common prefix of every control message: a
// varint type id followed by a payload length whose width is version-gated
// (a varint on drafts 07-10, a fixed big-endian uint16 on drafts 11-13).
// Grounded on control_message/header.rs.
type controlMessageHeader struct {
	ty  uint64
	len int
}

func parseControlMessageHeader(r *reader, version Version) (controlMessageHeader, error) {
	ty, err := r.readVarint()
	if err != nil {
		return controlMessageHeader{}, err
	}
	var length int
	switch {
	case version.Between(Draft07, Draft10):
		v, err := r.readVarint()
		if err != nil {
			return controlMessageHeader{}, err
		}
		length = int(v)
	case version.Between(Draft11, Draft13):
		v, err := r.readUint16()
		if err != nil {
			return controlMessageHeader{}, err
		}
		length = int(v)
	default:
		return controlMessageHeader{}, protocolViolation("unsupported version %#x", uint64(version))
	}
	return controlMessageHeader{ty: ty, len: length}, nil
}

func putControlMessageHeader(w *writer, ty uint64, payloadLen int, version Version) {
	w.putVarint(ty)
	switch {
	case version.Between(Draft07, Draft10):
		w.putVarint(uint64(payloadLen))
	case version.Between(Draft11, Draft13):
		w.putUint16(uint16(payloadLen))
	}
}

// encodeControlMessage wraps body (the message's own field encoding,
// excluding type and length) with its control message header, mirroring the
// Rust reference's encode_control_message helper but using a two-pass
// approach (encode the body first, then know its length) instead of an
// in-place back-patch, since that is the more idiomatic Go way to build a
// length-prefixed record.
func encodeControlMessage(ty uint64, version Version, body []byte) []byte {
	w := &writer{}
	putControlMessageHeader(w, ty, len(body), version)
	w.putBytes(body)
	return w.bytes()
}

// clientSetupType and serverSetupType return the version-appropriate
// CLIENT_SETUP/SERVER_SETUP message type id (drafts 07-10 use the
// ...UntilDraft10 alias type ids).
func clientSetupType(version Version) uint64 {
	if version.Between(Draft07, Draft10) {
		return msgClientSetupUntil10
	}
	return msgClientSetup
}

func serverSetupType(version Version) uint64 {
	if version.Between(Draft07, Draft10) {
		return msgServerSetupUntil10
	}
	return msgServerSetup
}
