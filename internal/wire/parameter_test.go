package wire

import (
	"bytes"
	"testing"
)

// On drafts 11-13 a Parameter follows the general KeyValuePair even/odd
// parity rule: even type ids are inline varints, odd type ids are length-
// prefixed byte strings.
func TestParameterParityDraft13(t *testing.T) {
	varintParam := NewVarintParameter(0x02, 99)
	w := &writer{}
	varintParam.serialize(w, Draft13)
	r := newReader(w.bytes())
	got, err := parseParameter(r, Draft13)
	if err != nil {
		t.Fatalf("parseParameter: %v", err)
	}
	if !got.IsVarint || got.Varint != 99 {
		t.Fatalf("unexpected varint parameter: %+v", got)
	}

	bytesParam := NewBytesParameter(0x03, []byte("hello"))
	w2 := &writer{}
	bytesParam.serialize(w2, Draft13)
	r2 := newReader(w2.bytes())
	got2, err := parseParameter(r2, Draft13)
	if err != nil {
		t.Fatalf("parseParameter: %v", err)
	}
	if got2.IsVarint || !bytes.Equal(got2.Bytes, []byte("hello")) {
		t.Fatalf("unexpected bytes parameter: %+v", got2)
	}
}

// On drafts 07-10 every Parameter is length-prefixed-bytes framed regardless
// of type parity, and a varint-valued parameter is packed as a single byte,
// matching parameter.rs's to_bytes override.
func TestParameterAlwaysBytesFramedDraft07(t *testing.T) {
	p := NewVarintParameter(0x02, 5)
	w := &writer{}
	p.serialize(w, Draft07)
	encoded := w.bytes()

	// type varint (1) + length varint (1, value 1) + single value byte (1).
	if len(encoded) != 3 {
		t.Fatalf("expected 3-byte encoding, got %d: %x", len(encoded), encoded)
	}
	if encoded[1] != 1 {
		t.Fatalf("expected length byte 1, got %d", encoded[1])
	}
	if encoded[2] != 5 {
		t.Fatalf("expected value byte 5, got %d", encoded[2])
	}

	r := newReader(encoded)
	got, err := parseParameter(r, Draft07)
	if err != nil {
		t.Fatalf("parseParameter: %v", err)
	}
	if got.IsVarint {
		t.Fatalf("draft 07-10 parameters decode as Bytes, not Varint: %+v", got)
	}
	if !bytes.Equal(got.Bytes, []byte{5}) {
		t.Fatalf("unexpected decoded bytes: %x", got.Bytes)
	}
}

func TestParametersListRoundTrip(t *testing.T) {
	ps := Parameters{
		NewVarintParameter(0x02, 1),
		NewBytesParameter(0x03, []byte("x")),
	}
	w := &writer{}
	ps.serialize(w, Draft13)
	r := newReader(w.bytes())
	got, err := parseParameters(r, Draft13)
	if err != nil {
		t.Fatalf("parseParameters: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(got))
	}
}

func TestSetupParametersMaxRequestIDDraft07SingleByte(t *testing.T) {
	maxReq := uint64(200)
	sp := SetupParameters{MaxRequestID: &maxReq}
	w := &writer{}
	sp.serialize(w, Draft07)
	r := newReader(w.bytes())

	got, err := parseSetupParameters(r, Draft07)
	if err != nil {
		t.Fatalf("parseSetupParameters: %v", err)
	}
	// Draft 07 packs the value into a single byte; 200 is in range 0-255,
	// so it round-trips exactly.
	if got.MaxRequestID == nil || *got.MaxRequestID != 200 {
		t.Fatalf("unexpected max request id: %+v", got.MaxRequestID)
	}
}

func TestSetupParametersExtraParametersPreserved(t *testing.T) {
	extra := NewBytesParameter(0x99, []byte("extension"))
	sp := SetupParameters{ExtraParameters: Parameters{extra}}
	w := &writer{}
	sp.serialize(w, Draft13)
	r := newReader(w.bytes())
	got, err := parseSetupParameters(r, Draft13)
	if err != nil {
		t.Fatalf("parseSetupParameters: %v", err)
	}
	if len(got.ExtraParameters) != 1 || got.ExtraParameters[0].Type != 0x99 {
		t.Fatalf("unexpected extra parameters: %+v", got.ExtraParameters)
	}
}
