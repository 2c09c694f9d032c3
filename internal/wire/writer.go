package wire

import "github.com/quic-go/quic-go/quicvarint"

// writer is an append-only byte encoder, generalizing the teacher's
// internal/moq append-helper style (appendVarIntBytes, AppendNamespaceTuple)
// into a small stateful type so message encoders read linearly instead of
// threading a buf []byte through every call.
type writer struct {
	buf []byte
}

func (w *writer) putVarint(v uint64) {
	w.buf = quicvarint.Append(w.buf, v)
}

func (w *writer) putByte(v byte) {
	w.buf = append(w.buf, v)
}

func (w *writer) putUint16(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

func (w *writer) putBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// putVarintBytes appends a varint length prefix followed by data, the
// length-prefixed-byte-string encoding used throughout the wire format.
func (w *writer) putVarintBytes(data []byte) {
	w.putVarint(uint64(len(data)))
	w.putBytes(data)
}

func (w *writer) bytes() []byte {
	return w.buf
}
