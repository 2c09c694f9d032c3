package wire

import "testing"

func TestAllOfferedVersionsIncludesVendorVariant(t *testing.T) {
	found := false
	for _, v := range AllOfferedVersions {
		if v == VendorVariant {
			found = true
		}
	}
	if !found {
		t.Fatal("expected AllOfferedVersions to include VendorVariant")
	}
	if len(AllOfferedVersions) != len(AllDrafts)+1 {
		t.Fatalf("expected AllOfferedVersions to be AllDrafts plus one, got %d entries", len(AllOfferedVersions))
	}
}
