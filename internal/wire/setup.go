package wire

// ClientSetup is the first message sent by a MoQ client on the control
// stream. Grounded on control_message/client_setup.rs.
type ClientSetup struct {
	SupportedVersions []Version
	SetupParameters   SetupParameters
}

// Serialize encodes a CLIENT_SETUP message, including its control message
// header, for the given version.
func (cs ClientSetup) Serialize(version Version) []byte {
	body := &writer{}
	body.putVarint(uint64(len(cs.SupportedVersions)))
	for _, v := range cs.SupportedVersions {
		body.putVarint(uint64(v))
	}
	cs.SetupParameters.serialize(body, version)
	return encodeControlMessage(clientSetupType(version), version, body.bytes())
}

// ParseClientSetup parses a CLIENT_SETUP message including its header.
func ParseClientSetup(data []byte, version Version) (ClientSetup, error) {
	r := newReader(data)
	header, err := parseControlMessageHeader(r, version)
	if err != nil {
		return ClientSetup{}, err
	}
	if header.ty != clientSetupType(version) {
		return ClientSetup{}, protocolViolation("expected CLIENT_SETUP type %#x, got %#x", clientSetupType(version), header.ty)
	}
	numVersions, err := r.readVarint()
	if err != nil {
		return ClientSetup{}, err
	}
	versions := make([]Version, numVersions)
	for i := range versions {
		v, err := r.readVarint()
		if err != nil {
			return ClientSetup{}, err
		}
		versions[i] = Version(v)
	}
	sp, err := parseSetupParameters(r, version)
	if err != nil {
		return ClientSetup{}, err
	}
	return ClientSetup{SupportedVersions: versions, SetupParameters: sp}, nil
}

// ServerSetup is the response to a ClientSetup, naming the version the
// server selected. Grounded on control_message/server_setup.rs.
type ServerSetup struct {
	SelectedVersion Version
	SetupParameters SetupParameters
}

// Serialize encodes a SERVER_SETUP message, including its control message
// header.
func (ss ServerSetup) Serialize(version Version) []byte {
	body := &writer{}
	body.putVarint(uint64(ss.SelectedVersion))
	ss.SetupParameters.serialize(body, version)
	return encodeControlMessage(serverSetupType(version), version, body.bytes())
}

// ParseServerSetup parses a SERVER_SETUP message including its header.
func ParseServerSetup(data []byte, version Version) (ServerSetup, error) {
	r := newReader(data)
	header, err := parseControlMessageHeader(r, version)
	if err != nil {
		return ServerSetup{}, err
	}
	if header.ty != serverSetupType(version) {
		return ServerSetup{}, protocolViolation("expected SERVER_SETUP type %#x, got %#x", serverSetupType(version), header.ty)
	}
	selected, err := r.readVarint()
	if err != nil {
		return ServerSetup{}, err
	}
	sp, err := parseSetupParameters(r, version)
	if err != nil {
		return ServerSetup{}, err
	}
	return ServerSetup{SelectedVersion: Version(selected), SetupParameters: sp}, nil
}
