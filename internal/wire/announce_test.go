package wire

import "testing"

func TestAnnounceRoundTripDraft07(t *testing.T) {
	a := Announce{TrackNamespace: Namespace{[]byte("live")}}
	data := a.Serialize(Draft07)
	got, err := ParseAnnounce(data, Draft07)
	if err != nil {
		t.Fatalf("ParseAnnounce: %v", err)
	}
	if got.RequestID != nil {
		t.Fatalf("expected no request id on draft 07, got %+v", got.RequestID)
	}
	if len(got.TrackNamespace) != 1 {
		t.Fatalf("unexpected namespace: %+v", got.TrackNamespace)
	}
}

func TestAnnounceRoundTripDraft13(t *testing.T) {
	id := uint64(9)
	a := Announce{RequestID: &id, TrackNamespace: Namespace{[]byte("live")}}
	data := a.Serialize(Draft13)
	got, err := ParseAnnounce(data, Draft13)
	if err != nil {
		t.Fatalf("ParseAnnounce: %v", err)
	}
	if got.RequestID == nil || *got.RequestID != 9 {
		t.Fatalf("unexpected request id: %+v", got.RequestID)
	}
}

// Confirms the bug fix relative to announce_ok.rs's to_bytes: no trailing
// version varint is written after the version-gated field, so the encoded
// message contains exactly the control header plus one field.
func TestAnnounceOKRoundTripDraft07(t *testing.T) {
	ns := Namespace{[]byte("live")}
	ao := NewAnnounceOK(nil, &ns)
	data := ao.Serialize(Draft07)
	got, err := ParseAnnounceOK(data, Draft07)
	if err != nil {
		t.Fatalf("ParseAnnounceOK: %v", err)
	}
	if got.TrackNamespace == nil || len(*got.TrackNamespace) != 1 {
		t.Fatalf("unexpected namespace: %+v", got.TrackNamespace)
	}
	if got.RequestID != nil {
		t.Fatalf("expected no request id on draft 07, got %+v", got.RequestID)
	}

	header, err := parseControlMessageHeader(newReader(data), Draft07)
	if err != nil {
		t.Fatalf("parseControlMessageHeader: %v", err)
	}
	// namespace count varint (1) + field length varint (1) + "live" (4),
	// with no extra trailing bytes from the erroneous version write the
	// reference implementation leaves in.
	if header.len != 6 {
		t.Fatalf("expected body length 6, got %d", header.len)
	}
}

func TestAnnounceOKRoundTripDraft13(t *testing.T) {
	id := uint64(4)
	ao := NewAnnounceOK(&id, nil)
	data := ao.Serialize(Draft13)
	got, err := ParseAnnounceOK(data, Draft13)
	if err != nil {
		t.Fatalf("ParseAnnounceOK: %v", err)
	}
	if got.RequestID == nil || *got.RequestID != 4 {
		t.Fatalf("unexpected request id: %+v", got.RequestID)
	}
	if got.TrackNamespace != nil {
		t.Fatalf("expected no namespace on draft 13, got %+v", got.TrackNamespace)
	}
}
