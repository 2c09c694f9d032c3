// Package moqsession implements the MoQ Transport session state machine: a
// single-threaded, poll-driven core that speaks the control stream and data
// streams defined by internal/wire, independent of any concrete transport.
package moqsession

import "github.com/zsiec/moqcore/internal/wire"

// DefaultClientMaxRequestID is offered by Connect in the MAX_REQUEST_ID
// setup parameter when Config.MaxRequestID is zero, matching session.rs's
// connect() behavior of always sending Some(100).
const DefaultClientMaxRequestID uint64 = 100

// Config holds the session-wide settings that are independent of any single
// connection: which version to prefer, which versions to offer, and how to
// behave at the request-id quota boundary. Grounded on quiche_moq/config.rs,
// generalized with SupportedVersions since session.rs's connect() already
// references config.supported_versions even though the shown config.rs
// doesn't declare the field.
type Config struct {
	// SetupVersion is offered as the preferred version and is the version
	// assumed for the control stream before SERVER_SETUP is received.
	SetupVersion wire.Version
	// SupportedVersions lists every version CLIENT_SETUP offers, in the
	// order they are sent; a server selects its own SetupVersion from the
	// list, so the order does not express a preference.
	SupportedVersions []wire.Version
	// IgnoreMaxRequestQuota disables the RequestBlocked check in Subscribe,
	// for tests and trusted peers.
	IgnoreMaxRequestQuota bool
	// MaxRequestID is the request-id quota this endpoint grants its peer,
	// advertised in the MAX_REQUEST_ID setup parameter of whichever SETUP
	// message this endpoint sends (CLIENT_SETUP from Connect, SERVER_SETUP
	// from Accept's reply). Connect offers DefaultClientMaxRequestID when this
	// field is zero.
	MaxRequestID uint64
}

// DefaultConfig returns the reference configuration: prefer the newest
// draft, offer every draft this package understands plus the vendor variant
// identifier (negotiation only, never selected), and enforce the request-id
// quota.
func DefaultConfig() Config {
	return Config{
		SetupVersion:      wire.Draft13,
		SupportedVersions: append([]wire.Version(nil), wire.AllOfferedVersions...),
		MaxRequestID:      DefaultClientMaxRequestID,
	}
}
