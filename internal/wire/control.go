package wire

// ControlMessageKind identifies which of the 10 control messages a parsed
// ControlMessage carries.
type ControlMessageKind int

const (
	KindClientSetup ControlMessageKind = iota
	KindServerSetup
	KindSubscribe
	KindSubscribeOK
	KindSubscribeError
	KindAnnounce
	KindAnnounceOK
	KindSubscribeDone
	KindUnsubscribeNamespace
	KindRequestBlocked
)

// ControlMessage is a parsed control message of any of the 10 kinds the
// session layer exchanges on the control stream. Exactly one of the typed
// fields is populated, selected by Kind.
type ControlMessage struct {
	Kind ControlMessageKind

	ClientSetup          ClientSetup
	ServerSetup          ServerSetup
	Subscribe            Subscribe
	SubscribeOK          SubscribeOK
	SubscribeError       SubscribeError
	Announce             Announce
	AnnounceOK           AnnounceOK
	SubscribeDone        SubscribeDone
	UnsubscribeNamespace UnsubscribeNamespace
	RequestBlocked       RequestBlocked
}

// ParseControlMessage peeks the leading type id in data and dispatches to
// the matching message's parser, mirroring control_message/mod.rs's
// FromBytes dispatch on ControlMessage. It returns the number of bytes of
// data consumed by the message so callers (internal/moqsession's control
// stream reader) can drain exactly that many bytes from their scratch
// buffer. Returns moqerr.ErrBufferTooShort if data does not yet
// hold a complete message; callers should read more bytes from the control
// stream and retry.
func ParseControlMessage(data []byte, version Version) (ControlMessage, int, error) {
	r := newReader(data)
	ty, err := r.peekVarint()
	if err != nil {
		return ControlMessage{}, 0, err
	}

	var cm ControlMessage
	switch ty {
	case msgServerSetupUntil10, msgServerSetup:
		m, err := ParseServerSetup(data, version)
		if err != nil {
			return ControlMessage{}, 0, err
		}
		cm = ControlMessage{Kind: KindServerSetup, ServerSetup: m}
	case msgClientSetupUntil10, msgClientSetup:
		m, err := ParseClientSetup(data, version)
		if err != nil {
			return ControlMessage{}, 0, err
		}
		cm = ControlMessage{Kind: KindClientSetup, ClientSetup: m}
	case msgSubscribe:
		m, err := ParseSubscribe(data, version)
		if err != nil {
			return ControlMessage{}, 0, err
		}
		cm = ControlMessage{Kind: KindSubscribe, Subscribe: m}
	case msgSubscribeOK:
		m, err := ParseSubscribeOK(data, version)
		if err != nil {
			return ControlMessage{}, 0, err
		}
		cm = ControlMessage{Kind: KindSubscribeOK, SubscribeOK: m}
	case msgSubscribeError:
		m, err := ParseSubscribeError(data, version)
		if err != nil {
			return ControlMessage{}, 0, err
		}
		cm = ControlMessage{Kind: KindSubscribeError, SubscribeError: m}
	case msgAnnounce:
		m, err := ParseAnnounce(data, version)
		if err != nil {
			return ControlMessage{}, 0, err
		}
		cm = ControlMessage{Kind: KindAnnounce, Announce: m}
	case msgAnnounceOK:
		m, err := ParseAnnounceOK(data, version)
		if err != nil {
			return ControlMessage{}, 0, err
		}
		cm = ControlMessage{Kind: KindAnnounceOK, AnnounceOK: m}
	case msgSubscribeDone:
		m, err := ParseSubscribeDone(data, version)
		if err != nil {
			return ControlMessage{}, 0, err
		}
		cm = ControlMessage{Kind: KindSubscribeDone, SubscribeDone: m}
	case msgUnsubscribeNamespace:
		m, err := ParseUnsubscribeNamespace(data, version)
		if err != nil {
			return ControlMessage{}, 0, err
		}
		cm = ControlMessage{Kind: KindUnsubscribeNamespace, UnsubscribeNamespace: m}
	case msgRequestBlocked:
		m, err := ParseRequestBlocked(data, version)
		if err != nil {
			return ControlMessage{}, 0, err
		}
		cm = ControlMessage{Kind: KindRequestBlocked, RequestBlocked: m}
	default:
		return ControlMessage{}, 0, protocolViolation("unexpected control message type id %#x", ty)
	}

	n, err := controlMessageLen(data, version)
	if err != nil {
		return ControlMessage{}, 0, err
	}
	return cm, n, nil
}

// controlMessageLen re-reads just the header to compute the total on-wire
// length (header + payload) of the message starting at data[0].
func controlMessageLen(data []byte, version Version) (int, error) {
	r := newReader(data)
	header, err := parseControlMessageHeader(r, version)
	if err != nil {
		return 0, err
	}
	return r.off() + header.len, nil
}

// Serialize encodes the control message, dispatching on Kind.
func (cm ControlMessage) Serialize(version Version) ([]byte, error) {
	switch cm.Kind {
	case KindClientSetup:
		return cm.ClientSetup.Serialize(version), nil
	case KindServerSetup:
		return cm.ServerSetup.Serialize(version), nil
	case KindSubscribe:
		return cm.Subscribe.Serialize(version)
	case KindSubscribeOK:
		return cm.SubscribeOK.Serialize(version), nil
	case KindSubscribeError:
		return cm.SubscribeError.Serialize(version), nil
	case KindAnnounce:
		return cm.Announce.Serialize(version), nil
	case KindAnnounceOK:
		return cm.AnnounceOK.Serialize(version), nil
	case KindSubscribeDone:
		return cm.SubscribeDone.Serialize(version), nil
	case KindUnsubscribeNamespace:
		return cm.UnsubscribeNamespace.Serialize(version), nil
	case KindRequestBlocked:
		return cm.RequestBlocked.Serialize(version), nil
	default:
		return nil, protocolViolation("unknown control message kind %d", cm.Kind)
	}
}
