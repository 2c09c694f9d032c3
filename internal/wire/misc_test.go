package wire

import (
	"errors"
	"testing"

	"github.com/zsiec/moqcore/internal/moqerr"
)

func TestSubscribeDoneRoundTrip(t *testing.T) {
	sd := SubscribeDone{RequestID: 1, StatusCode: 0, StreamCount: 3, ErrorReason: "ended"}
	data := sd.Serialize(Draft13)
	got, err := ParseSubscribeDone(data, Draft13)
	if err != nil {
		t.Fatalf("ParseSubscribeDone: %v", err)
	}
	if got != sd {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, sd)
	}
}

func TestUnsubscribeNamespaceRoundTrip(t *testing.T) {
	un := UnsubscribeNamespace{TrackNamespace: Namespace{[]byte("live"), []byte("a")}}
	data := un.Serialize(Draft13)
	got, err := ParseUnsubscribeNamespace(data, Draft13)
	if err != nil {
		t.Fatalf("ParseUnsubscribeNamespace: %v", err)
	}
	if len(got.TrackNamespace) != 2 {
		t.Fatalf("unexpected namespace: %+v", got.TrackNamespace)
	}
}

func TestRequestBlockedRoundTrip(t *testing.T) {
	rb := RequestBlocked{MaximumRequestID: 100}
	data := rb.Serialize(Draft13)
	got, err := ParseRequestBlocked(data, Draft13)
	if err != nil {
		t.Fatalf("ParseRequestBlocked: %v", err)
	}
	if got.MaximumRequestID != 100 {
		t.Fatalf("unexpected maximum request id: %d", got.MaximumRequestID)
	}
}

func TestSubscribeDoneRejectsWrongType(t *testing.T) {
	rb := RequestBlocked{MaximumRequestID: 1}
	data := rb.Serialize(Draft13)
	if _, err := ParseSubscribeDone(data, Draft13); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

// A reason phrase is a length-prefixed byte string that must be valid UTF-8;
// a peer that sends invalid bytes there must be rejected with FromUtf8Error,
// not silently accepted as a string with replacement characters.
func TestSubscribeDoneRejectsInvalidUTF8ReasonPhrase(t *testing.T) {
	body := &writer{}
	body.putVarint(1)
	body.putVarint(0)
	body.putVarint(3)
	body.putVarintBytes([]byte{0xff, 0xfe})
	data := encodeControlMessage(msgSubscribeDone, Draft13, body.bytes())

	_, err := ParseSubscribeDone(data, Draft13)
	if err == nil {
		t.Fatal("expected an error for invalid UTF-8 reason phrase")
	}
	if !errors.Is(err, moqerr.New(moqerr.FromUtf8Error, "")) {
		t.Fatalf("expected FromUtf8Error, got %v", err)
	}
}
