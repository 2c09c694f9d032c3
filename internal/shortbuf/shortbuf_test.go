package shortbuf

import (
	"bytes"
	"io"
	"testing"
)

func TestFillAndDrain(t *testing.T) {
	t.Parallel()
	b := New(8)
	r := bytes.NewReader([]byte("abcdef"))

	n, err := b.Fill(r)
	if err != nil && err != io.EOF {
		t.Fatalf("Fill: %v", err)
	}
	if n != 6 {
		t.Fatalf("Fill returned %d, want 6", n)
	}
	if b.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", b.Len())
	}

	got := b.Drain(3)
	if string(got) != "abc" {
		t.Fatalf("Drain(3) = %q, want %q", got, "abc")
	}
	if b.Len() != 3 {
		t.Fatalf("Len() after drain = %d, want 3", b.Len())
	}
}

func TestCompactReusesCapacity(t *testing.T) {
	t.Parallel()
	b := New(4)
	r := bytes.NewReader([]byte("abcd"))

	if _, err := b.Fill(r); err != nil && err != io.EOF {
		t.Fatalf("Fill: %v", err)
	}
	if b.Drain(4); b.Len() != 0 {
		t.Fatalf("expected empty buffer, got Len()=%d", b.Len())
	}

	r2 := bytes.NewReader([]byte("wxyz"))
	n, err := b.Fill(r2)
	if err != nil && err != io.EOF {
		t.Fatalf("second Fill: %v", err)
	}
	if n != 4 {
		t.Fatalf("second Fill returned %d, want 4", n)
	}
	if got := string(b.Bytes()); got != "wxyz" {
		t.Fatalf("Bytes() = %q, want %q", got, "wxyz")
	}
}

func TestFillFullWithoutCompactableRoom(t *testing.T) {
	t.Parallel()
	b := New(4)
	r := bytes.NewReader([]byte("abcd"))
	if _, err := b.Fill(r); err != nil && err != io.EOF {
		t.Fatalf("Fill: %v", err)
	}
	// Nothing is drained: buffer is full and nothing has been consumed,
	// so compact cannot make room.
	if _, err := b.Fill(bytes.NewReader([]byte("e"))); err != ErrFull {
		t.Fatalf("Fill on full buffer: got %v, want ErrFull", err)
	}
}

func TestChainRead2AcrossFillBoundary(t *testing.T) {
	t.Parallel()
	b := New(16)
	// Pre-load 2 bytes into the scratch buffer directly.
	if _, err := b.Fill(bytes.NewReader([]byte("ab"))); err != nil && err != io.EOF {
		t.Fatalf("Fill: %v", err)
	}
	// The remaining bytes of a 5-byte record come from r.
	r := bytes.NewReader([]byte("cde"))
	got, err := b.ChainRead2(r, 5)
	if err != nil {
		t.Fatalf("ChainRead2: %v", err)
	}
	if string(got) != "abcde" {
		t.Fatalf("ChainRead2 = %q, want %q", got, "abcde")
	}
}

func TestChainRead2ShortReadReturnsUnexpectedEOF(t *testing.T) {
	t.Parallel()
	b := New(16)
	r := bytes.NewReader([]byte("ab"))
	_, err := b.ChainRead2(r, 5)
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("ChainRead2 error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestDrainMoreThanHeldClamps(t *testing.T) {
	t.Parallel()
	b := New(8)
	if _, err := b.Fill(bytes.NewReader([]byte("ab"))); err != nil && err != io.EOF {
		t.Fatalf("Fill: %v", err)
	}
	got := b.Drain(10)
	if string(got) != "ab" {
		t.Fatalf("Drain(10) = %q, want %q", got, "ab")
	}
	if b.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", b.Len())
	}
}
