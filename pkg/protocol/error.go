package protocol

// ErrorCode identifies the type of error.
type ErrorCode uint16

const (
	ErrUnknown        ErrorCode = 0x0000 // Unknown error
	ErrInvalidFrame   ErrorCode = 0x0001 // Malformed frame
	ErrInvalidConnect ErrorCode = 0x0002 // Malformed connect request
	ErrSessionExpired ErrorCode = 0x0005 // Session no longer valid
	ErrServerError    ErrorCode = 0x0100 // Internal server error
	ErrNotFound       ErrorCode = 0x0102 // No view for the route
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrUnknown:
		return "Unknown"
	case ErrInvalidFrame:
		return "InvalidFrame"
	case ErrInvalidConnect:
		return "InvalidConnect"
	case ErrSessionExpired:
		return "SessionExpired"
	case ErrServerError:
		return "ServerError"
	case ErrNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// ErrorMessage is sent when an error occurs. ElementID is set when the
// error concerns a single connect request.
type ErrorMessage struct {
	Code      ErrorCode
	Message   string
	ElementID string
	Fatal     bool // If true, connection should be closed
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteUint16(uint16(em.Code))
	e.WriteString(em.Message)
	e.WriteString(em.ElementID)
	e.WriteBool(em.Fatal)
	return e.Bytes()
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}
	message, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	elementID, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	fatal, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	return &ErrorMessage{
		Code:      ErrorCode(code),
		Message:   message,
		ElementID: elementID,
		Fatal:     fatal,
	}, nil
}

// NewError creates a new non-fatal ErrorMessage.
func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message}
}

// NewElementError creates a non-fatal ErrorMessage scoped to one element.
func NewElementError(code ErrorCode, elementID, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message, ElementID: elementID}
}

// NewFatalError creates a new fatal ErrorMessage.
func NewFatalError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message, Fatal: true}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code.String() + ": " + em.Message
	}
	return em.Code.String() + ": " + em.Message
}
