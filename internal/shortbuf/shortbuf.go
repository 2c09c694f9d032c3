// Package shortbuf implements a fixed-capacity, compacting scratch buffer
// used to accumulate partial reads from a QUIC stream until a full record
// (a control message or an object header) becomes parseable.
package shortbuf

import (
	"errors"
	"io"
)

// ErrFull is returned by Fill when the buffer has no room left to grow into
// and the held bytes have not yet been drained by a reader.
var ErrFull = errors.New("shortbuf: buffer at capacity")

// Buf is a fixed-capacity byte buffer that compacts in place instead of
// reallocating. Bytes are appended at the tail by Fill, read from the head by
// Peek and consumed by Drain; once the head catches up to the tail the buffer resets
// to empty without any copy.
type Buf struct {
	buf  []byte
	head int
	tail int
}

// New returns a Buf with the given fixed capacity.
func New(capacity int) *Buf {
	return &Buf{buf: make([]byte, capacity)}
}

// Len returns the number of unread bytes currently held.
func (b *Buf) Len() int {
	return b.tail - b.head
}

// Cap returns the buffer's fixed capacity.
func (b *Buf) Cap() int {
	return len(b.buf)
}

// Bytes returns the currently-held unread bytes. The returned slice aliases
// the buffer's internal storage and is invalidated by the next Fill or
// Drain call.
func (b *Buf) Bytes() []byte {
	return b.buf[b.head:b.tail]
}

// Reset discards all held bytes without reading.
func (b *Buf) Reset() {
	b.head = 0
	b.tail = 0
}

// compact moves any unread bytes to the front of the backing array, which
// is a no-op (zero-copy) whenever the buffer is already empty.
func (b *Buf) compact() {
	if b.head == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.head:b.tail])
	b.head = 0
	b.tail = n
}

// Fill reads as many additional bytes as fit from r, appending them after
// any bytes already held. It compacts first, so a Buf that has been fully
// drained reuses its whole capacity. Returns the number of bytes read and
// any error from r, including io.EOF. Returns ErrFull without reading if no
// room remains and the buffer is not already empty enough to compact into
// room.
func (b *Buf) Fill(r io.Reader) (int, error) {
	b.compact()
	if b.tail == len(b.buf) {
		return 0, ErrFull
	}
	n, err := r.Read(b.buf[b.tail:])
	b.tail += n
	return n, err
}

// Peek returns up to n unread bytes without consuming them. It returns fewer
// than n bytes if that many are not yet held.
func (b *Buf) Peek(n int) []byte {
	avail := b.Len()
	if n > avail {
		n = avail
	}
	return b.buf[b.head : b.head+n]
}

// Drain consumes and returns up to n unread bytes, advancing the head
// cursor. It returns fewer than n bytes if that many are not held.
func (b *Buf) Drain(n int) []byte {
	avail := b.Len()
	if n > avail {
		n = avail
	}
	out := b.buf[b.head : b.head+n]
	b.head += n
	if b.head == b.tail {
		b.head = 0
		b.tail = 0
	}
	return out
}

// ChainRead2 returns a contiguous view of the next n unread bytes, copying
// held bytes and topping up from r only when the buffer does not already
// hold n contiguous bytes. When the buffer is empty and r itself can supply
// a contiguous view cheaply, callers should prefer reading directly from r;
// ChainRead2 exists for the case where some of the record already sits in
// the scratch buffer and the rest must be read through. It returns
// io.ErrUnexpectedEOF if r is exhausted before n bytes are available.
func (b *Buf) ChainRead2(r io.Reader, n int) ([]byte, error) {
	for b.Len() < n {
		if _, err := b.Fill(r); err != nil {
			if errors.Is(err, io.EOF) && b.Len() >= n {
				break
			}
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return b.Drain(n), nil
}
