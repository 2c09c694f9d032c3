package wire

import (
	"bytes"
	"testing"
)

// Re-expresses subgroup.rs's test_encode_decode across the draft 07-10
// single type and the draft 11-13 type family.
func TestSubgroupHeaderRoundTripDraft10(t *testing.T) {
	sh := NewSubgroupHeader(1, 2, 3, Draft10)
	sh.PublisherPriority = 9
	data := sh.Serialize(Draft10)
	got, consumed, err := ParseSubgroupHeaderBytes(data, Draft10)
	if err != nil {
		t.Fatalf("ParseSubgroupHeaderBytes: %v", err)
	}
	if consumed != len(data) {
		t.Fatalf("expected to consume all %d bytes, consumed %d", len(data), consumed)
	}
	if got.Type != subgroupStreamTypeDraft07to10 {
		t.Fatalf("unexpected type: %#x", got.Type)
	}
	if got.TrackAlias != 1 || got.GroupID != 2 {
		t.Fatalf("unexpected alias/group: %+v", got)
	}
	if got.SubgroupID == nil || *got.SubgroupID != 3 {
		t.Fatalf("unexpected subgroup id: %+v", got.SubgroupID)
	}
	if got.PublisherPriority != 9 {
		t.Fatalf("unexpected priority: %d", got.PublisherPriority)
	}
}

func TestSubgroupHeaderRoundTripDraft13(t *testing.T) {
	sh := NewSubgroupHeader(5, 6, 7, Draft13)
	data := sh.Serialize(Draft13)
	got, _, err := ParseSubgroupHeaderBytes(data, Draft13)
	if err != nil {
		t.Fatalf("ParseSubgroupHeaderBytes: %v", err)
	}
	if got.Type != 0xD {
		t.Fatalf("expected type 0xD (subgroup id present, extensions present), got %#x", got.Type)
	}
	if got.SubgroupID == nil || *got.SubgroupID != 7 {
		t.Fatalf("unexpected subgroup id: %+v", got.SubgroupID)
	}
}

func TestSubgroupHeaderImplicitZeroSubgroupID(t *testing.T) {
	sh := SubgroupHeader{Type: 0x8, TrackAlias: 1, GroupID: 1, PublisherPriority: 0}
	data := sh.Serialize(Draft13)
	got, _, err := ParseSubgroupHeaderBytes(data, Draft13)
	if err != nil {
		t.Fatalf("ParseSubgroupHeaderBytes: %v", err)
	}
	if got.SubgroupID == nil || *got.SubgroupID != 0 {
		t.Fatalf("expected implicit zero subgroup id, got %+v", got.SubgroupID)
	}
}

// The draft 07 stream header carries an undocumented leading zero varint
// before the track alias, which round-trips but decodes to no field.
func TestSubgroupHeaderDraft07LeadingZeroPlaceholder(t *testing.T) {
	sh := NewSubgroupHeader(1, 2, 3, Draft07)
	data := sh.Serialize(Draft07)
	// type varint (1) + leading zero placeholder varint (1) + track alias (1)
	// + group id (1) + subgroup id (1) + priority byte (1).
	if len(data) != 6 {
		t.Fatalf("expected 6-byte encoding, got %d: %x", len(data), data)
	}
	if data[1] != 0 {
		t.Fatalf("expected leading placeholder byte 0, got %d", data[1])
	}
	got, _, err := ParseSubgroupHeaderBytes(data, Draft07)
	if err != nil {
		t.Fatalf("ParseSubgroupHeaderBytes: %v", err)
	}
	if got.TrackAlias != 1 {
		t.Fatalf("unexpected track alias after placeholder skip: %d", got.TrackAlias)
	}
}

func TestObjectHeaderRoundTripNoExtensionsNoPayload(t *testing.T) {
	status := uint64(0)
	oh := ObjectHeader{ID: 42, SubgroupType: subgroupStreamTypeDraft07to10, Status: &status}
	data := oh.Serialize(Draft10)
	got, consumed, err := ParseObjectHeaderBytes(data, Draft10, SubgroupHeader{Type: subgroupStreamTypeDraft07to10})
	if err != nil {
		t.Fatalf("ParseObjectHeaderBytes: %v", err)
	}
	if consumed != len(data) {
		t.Fatalf("expected to consume all bytes, consumed %d of %d", consumed, len(data))
	}
	if got.ID != 42 {
		t.Fatalf("unexpected id: %d", got.ID)
	}
	if got.PayloadLength != 0 {
		t.Fatalf("expected zero payload length, got %d", got.PayloadLength)
	}
	if got.Status == nil || *got.Status != 0 {
		t.Fatalf("expected status 0, got %+v", got.Status)
	}
}

func TestObjectHeaderRoundTripWithExtensions(t *testing.T) {
	oh := NewObjectHeader(1, 10, 0xD)
	oh.ExtensionHeaders = []Parameter{
		NewVarintParameter(0x02, 5),
		NewBytesParameter(0x03, []byte("ext")),
	}
	data := oh.Serialize(Draft13)
	got, _, err := ParseObjectHeaderBytes(data, Draft13, SubgroupHeader{Type: 0xD})
	if err != nil {
		t.Fatalf("ParseObjectHeaderBytes: %v", err)
	}
	if len(got.ExtensionHeaders) != 2 {
		t.Fatalf("expected 2 extension headers, got %d", len(got.ExtensionHeaders))
	}
	if got.PayloadLength != 10 {
		t.Fatalf("unexpected payload length: %d", got.PayloadLength)
	}
	if got.Status != nil {
		t.Fatalf("expected no status for nonzero payload length, got %+v", got.Status)
	}
}

func TestObjectHeaderNoExtensionsWhenTypeExcludesThem(t *testing.T) {
	oh := NewObjectHeader(1, 10, subgroupStreamTypeDraft07to10)
	oh.ExtensionHeaders = []Parameter{NewVarintParameter(0x02, 5)} // ignored: type carries no extensions
	data := oh.Serialize(Draft10)
	got, _, err := ParseObjectHeaderBytes(data, Draft10, SubgroupHeader{Type: subgroupStreamTypeDraft07to10})
	if err != nil {
		t.Fatalf("ParseObjectHeaderBytes: %v", err)
	}
	if len(got.ExtensionHeaders) != 0 {
		t.Fatalf("expected no extension headers decoded, got %d", len(got.ExtensionHeaders))
	}
	if !bytes.Equal(data, oh.Serialize(Draft10)) {
		t.Fatalf("serialization should be stable across calls")
	}
}
