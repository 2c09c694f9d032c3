// Package wire implements the version-parameterized MoQ Transport wire
// codec: control messages, parameters, tuples, subgroup stream headers and
// object headers, across drafts 07 through 13.
package wire

// Version identifies a MoQ Transport draft.
type Version uint64

// Supported draft versions, encoded as 0xff000000 + draft number per the
// IETF MoQ Transport drafts.
const (
	Draft07 Version = 0xff000007
	Draft08 Version = 0xff000008
	Draft09 Version = 0xff000009
	Draft10 Version = 0xff00000A
	Draft11 Version = 0xff00000B
	Draft12 Version = 0xff00000C
	Draft13 Version = 0xff00000D

	// VendorVariant is a private-use version identifier offered alongside
	// the IETF drafts for negotiation only, per spec.md section 6.4. It is
	// never selected: this package has no wire format defined for it, so a
	// conforming peer either ignores it (falling back to a shared draft) or
	// would itself have to be the one offering compatibility for it. It
	// exists purely so CLIENT_SETUP's supported_versions list exercises a
	// version a peer is expected not to recognize.
	VendorVariant Version = 0xff0bcd00
)

// AllDrafts lists every version this package can parse and serialize, in
// ascending order.
var AllDrafts = []Version{Draft07, Draft08, Draft09, Draft10, Draft11, Draft12, Draft13}

// AllOfferedVersions is AllDrafts plus VendorVariant, in the order offered in
// CLIENT_SETUP's supported_versions by default.
var AllOfferedVersions = append(append([]Version(nil), AllDrafts...), VendorVariant)

// Between reports whether v falls within [lo, hi] inclusive, matching the
// draft-range match arms used throughout the wire format.
func (v Version) Between(lo, hi Version) bool {
	return v >= lo && v <= hi
}

// control message type IDs (draft 11-13; drafts 07-10 use the ...Until10
// aliases for CLIENT_SETUP/SERVER_SETUP).
const (
	msgClientSetup           uint64 = 0x20
	msgServerSetup           uint64 = 0x21
	msgClientSetupUntil10    uint64 = 0x40
	msgServerSetupUntil10    uint64 = 0x41
	msgSubscribe             uint64 = 0x03
	msgSubscribeOK           uint64 = 0x04
	msgSubscribeError        uint64 = 0x05
	msgAnnounce              uint64 = 0x06
	msgAnnounceOK            uint64 = 0x07
	msgSubscribeDone         uint64 = 0x0B
	msgUnsubscribeNamespace  uint64 = 0x14
	msgRequestBlocked        uint64 = 0x1A
)

// setup parameter IDs.
const (
	paramRole         uint64 = 0x00 // draft 07 only
	paramPath         uint64 = 0x01
	paramMaxRequestID uint64 = 0x02
)

// role IDs, draft 07 only.
const (
	roleIDPublisher uint64 = 0x01
	roleIDSubscriber uint64 = 0x02
	roleIDPubSub     uint64 = 0x03
)

// subscribe filter type IDs.
const (
	filterNextGroupStart uint64 = 0x01
	filterLargestObject  uint64 = 0x02
	filterAbsoluteStart  uint64 = 0x03
	filterAbsoluteRange  uint64 = 0x04
)

// subgroup stream type IDs.
const (
	subgroupStreamTypeDraft07to10 uint64 = 0x4
	fetchUniStreamType            uint64 = 0x5
)

// SUBGROUP_UNI_STREAM_TYPE_IDS, draft 11-13.
var subgroupUniStreamTypes = [6]uint64{0x8, 0x9, 0xA, 0xB, 0xC, 0xD}

// reset stream codes.
const (
	ResetCodeInternalError    uint64 = 0x0
	ResetCodeCanceled         uint64 = 0x1
	ResetCodeDeliveryTimeout  uint64 = 0x2
	ResetCodeSessionClosed    uint64 = 0x3
)

// track naming bounds (draft-13 §name-track-naming).
const (
	MinNamespaceTupleLen = 1
	MaxNamespaceTupleLen = 32
	MaxFullTrackNameLen  = 4096
)

// DefaultMaxRequestID is the default value assumed for the MAX_REQUEST_ID
// setup parameter when the peer omits it.
const DefaultMaxRequestID uint64 = 0
