package protocol

// Connect asks the server to bind the view for Path to the placeholder
// element ElementID.
type Connect struct {
	Tag       string
	ElementID string
	Path      string
}

// Ready tells the client that the view bound to ElementID is ready.
type Ready struct {
	ElementID string
}

// EncodeConnect encodes a Connect to bytes.
func EncodeConnect(c *Connect) []byte {
	e := NewEncoder()
	e.WriteString(c.Tag)
	e.WriteString(c.ElementID)
	e.WriteString(c.Path)
	return e.Bytes()
}

// DecodeConnect decodes a Connect from bytes.
func DecodeConnect(data []byte) (*Connect, error) {
	d := NewDecoder(data)
	tag, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	id, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	path, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	return &Connect{Tag: tag, ElementID: id, Path: path}, nil
}

// EncodeReady encodes a Ready to bytes.
func EncodeReady(r *Ready) []byte {
	e := NewEncoder()
	e.WriteString(r.ElementID)
	return e.Bytes()
}

// DecodeReady decodes a Ready from bytes.
func DecodeReady(data []byte) (*Ready, error) {
	d := NewDecoder(data)
	id, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	return &Ready{ElementID: id}, nil
}
