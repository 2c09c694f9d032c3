package moqerr

import (
	"errors"
	"testing"
)

func TestIsMatchesByKindNotMessage(t *testing.T) {
	t.Parallel()
	err := New(ProtocolViolation, "bad filter type")
	if !errors.Is(err, New(ProtocolViolation, "different message")) {
		t.Fatal("expected errors.Is to match on Kind regardless of message")
	}
	if errors.Is(err, New(Done, "")) {
		t.Fatal("expected errors.Is to not match a different Kind")
	}
}

func TestWrapUnwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("short read")
	err := Wrap(IO, "read control message", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected Unwrap to expose the cause to errors.Is")
	}
}

func TestIsBufferTooShort(t *testing.T) {
	t.Parallel()
	if !IsBufferTooShort(ErrBufferTooShort) {
		t.Fatal("expected ErrBufferTooShort to be recognized")
	}
	if IsBufferTooShort(New(Done, "")) {
		t.Fatal("expected Done not to be recognized as buffer-too-short")
	}
	wrapped := Wrap(IO, "during fill", ErrBufferTooShort)
	if !IsBufferTooShort(wrapped) {
		t.Fatal("expected wrapped ErrBufferTooShort to still be recognized")
	}
}
