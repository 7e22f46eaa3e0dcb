package protocol

// HandshakeStatus is the server's answer to a ClientHello.
type HandshakeStatus uint8

const (
	HandshakeOK          HandshakeStatus = 0x00
	HandshakeUnknownApp  HandshakeStatus = 0x01
	HandshakeServerError HandshakeStatus = 0x02
)

// String returns the string representation of the status.
func (s HandshakeStatus) String() string {
	switch s {
	case HandshakeOK:
		return "OK"
	case HandshakeUnknownApp:
		return "UnknownApp"
	case HandshakeServerError:
		return "ServerError"
	default:
		return "Unknown"
	}
}

// ClientHello opens a push connection for an initialized session.
type ClientHello struct {
	AppID string
}

// ServerHello acknowledges a ClientHello.
type ServerHello struct {
	Status HandshakeStatus
	AppID  string
}

// EncodeClientHello encodes a ClientHello to bytes.
func EncodeClientHello(ch *ClientHello) []byte {
	e := NewEncoder()
	e.WriteString(ch.AppID)
	return e.Bytes()
}

// DecodeClientHello decodes a ClientHello from bytes.
func DecodeClientHello(data []byte) (*ClientHello, error) {
	d := NewDecoder(data)
	appID, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	return &ClientHello{AppID: appID}, nil
}

// EncodeServerHello encodes a ServerHello to bytes.
func EncodeServerHello(sh *ServerHello) []byte {
	e := NewEncoder()
	e.WriteByte(byte(sh.Status))
	e.WriteString(sh.AppID)
	return e.Bytes()
}

// DecodeServerHello decodes a ServerHello from bytes.
func DecodeServerHello(data []byte) (*ServerHello, error) {
	d := NewDecoder(data)
	status, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	appID, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	return &ServerHello{Status: HandshakeStatus(status), AppID: appID}, nil
}
