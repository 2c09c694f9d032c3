package wire

import (
	"github.com/quic-go/quic-go/quicvarint"

	"github.com/zsiec/moqcore/internal/moqerr"
)

// reader wraps a byte slice for sequential varint/byte reading, generalizing
// the teacher's internal/moq bufReader with the moqerr error taxonomy and a
// peek operation needed for control-message-type dispatch.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) off() int {
	return r.pos
}

func (r *reader) readVarint() (uint64, error) {
	if r.remaining() == 0 {
		return 0, moqerr.ErrBufferTooShort
	}
	val, n, err := quicvarint.Parse(r.data[r.pos:])
	if err != nil {
		return 0, moqerr.ErrBufferTooShort
	}
	r.pos += n
	return val, nil
}

// peekVarint reads a varint without advancing the cursor, mirroring
// octets.rs's peek_varint used to dispatch on a control message's type id.
func (r *reader) peekVarint() (uint64, error) {
	save := r.pos
	v, err := r.readVarint()
	r.pos = save
	return v, err
}

func (r *reader) readByte() (byte, error) {
	if r.remaining() == 0 {
		return 0, moqerr.ErrBufferTooShort
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) readUint16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, moqerr.ErrBufferTooShort
	}
	v := uint16(r.data[r.pos])<<8 | uint16(r.data[r.pos+1])
	r.pos += 2
	return v, nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, moqerr.ErrBufferTooShort
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// readVarintBytes reads a varint length prefix followed by that many bytes.
func (r *reader) readVarintBytes() ([]byte, error) {
	n, err := r.readVarint()
	if err != nil {
		return nil, err
	}
	return r.readBytes(int(n))
}
