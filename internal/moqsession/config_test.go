package moqsession

import (
	"testing"

	"github.com/zsiec/moqcore/internal/wire"
)

func TestDefaultConfigOffersVendorVariant(t *testing.T) {
	cfg := DefaultConfig()
	found := false
	for _, v := range cfg.SupportedVersions {
		if v == wire.VendorVariant {
			found = true
		}
	}
	if !found {
		t.Fatal("expected DefaultConfig to offer wire.VendorVariant in SupportedVersions")
	}
}
