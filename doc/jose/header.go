/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"bytes"
	"encoding/json"
	"io"
	"sync/atomic"

	"github.com/mitchellh/mapstructure"

	"github.com/trustbloc/jose-go/util/cryptoutil"
	"github.com/trustbloc/jose-go/util/errs"
)

// Header is an ordered collection of JOSE header attributes. Attribute order
// is insertion order and is preserved through JSON serialization, so a header
// round-trips byte-for-byte modulo whitespace.
//
// A Header is reference counted. NewHeader and ParseHeader return a header
// with one reference; Retain adds one and Release drops one, scrubbing the
// attribute values once the count reaches zero. The counter is atomic, but
// concurrent mutation of the attribute set itself is not synchronized.
type Header struct {
	refs  int32
	names []string
	attrs map[string]json.RawMessage
}

// NewHeader returns an empty header holding a single reference.
func NewHeader() *Header {
	return &Header{
		refs:  1,
		attrs: make(map[string]json.RawMessage),
	}
}

// ParseHeader parses a JSON object into a header, preserving the order in
// which the attributes appear in the input.
func ParseHeader(data []byte) (*Header, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse header")
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errs.New(errs.InvalidArgument, "header is not a JSON object")
	}

	h := NewHeader()

	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, err, "parse header")
		}

		name, ok := tok.(string)
		if !ok {
			return nil, errs.New(errs.InvalidArgument, "header attribute name is not a string")
		}

		var raw json.RawMessage

		if err = dec.Decode(&raw); err != nil {
			return nil, errs.Wrapf(errs.InvalidArgument, err, "parse header attribute %q", name)
		}

		h.setRaw(name, raw)
	}

	if _, err = dec.Token(); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse header")
	}

	if _, err = dec.Token(); err != io.EOF {
		return nil, errs.New(errs.InvalidArgument, "header has data after the closing brace")
	}

	return h, nil
}

// Retain adds a reference to the header and returns it. Retain on a nil
// header is a no-op, which lets optional headers flow through unchecked.
func (h *Header) Retain() *Header {
	if h != nil {
		atomic.AddInt32(&h.refs, 1)
	}

	return h
}

// Release drops a reference. When the last reference is released the
// attribute values are zeroed before the maps are dropped, since headers can
// carry key material such as an ephemeral public key.
func (h *Header) Release() {
	if h == nil {
		return
	}

	if atomic.AddInt32(&h.refs, -1) > 0 {
		return
	}

	for _, raw := range h.attrs {
		cryptoutil.Zero(raw)
	}

	h.names = nil
	h.attrs = nil
}

// Len returns the number of attributes.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}

	return len(h.names)
}

// Names returns the attribute names in insertion order.
func (h *Header) Names() []string {
	if h == nil {
		return nil
	}

	names := make([]string, len(h.names))
	copy(names, h.names)

	return names
}

// Has reports whether the attribute is present.
func (h *Header) Has(attr string) bool {
	if h == nil {
		return false
	}

	_, ok := h.attrs[attr]

	return ok
}

// Set stores a string-valued attribute, replacing any previous value while
// keeping the attribute's original position.
func (h *Header) Set(attr, value string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errs.Wrapf(errs.InvalidArgument, err, "set header attribute %q", attr)
	}

	h.setRaw(attr, raw)

	return nil
}

// Get returns the value of a string-valued attribute. It returns false if the
// attribute is absent or its value is not a JSON string.
func (h *Header) Get(attr string) (string, bool) {
	if h == nil {
		return "", false
	}

	raw, ok := h.attrs[attr]
	if !ok {
		return "", false
	}

	var value string

	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}

	return value, true
}

// SetRaw stores an attribute whose value is an arbitrary JSON value, given as
// its serialized form.
func (h *Header) SetRaw(attr string, rawJSON []byte) error {
	if !json.Valid(rawJSON) {
		return errs.Newf(errs.InvalidArgument, "header attribute %q: value is not valid JSON", attr)
	}

	raw := make(json.RawMessage, len(rawJSON))
	copy(raw, rawJSON)

	h.setRaw(attr, raw)

	return nil
}

// GetRaw returns the serialized JSON value of an attribute of any type.
func (h *Header) GetRaw(attr string) ([]byte, bool) {
	if h == nil {
		return nil, false
	}

	raw, ok := h.attrs[attr]
	if !ok {
		return nil, false
	}

	out := make([]byte, len(raw))
	copy(out, raw)

	return out, true
}

// Clone returns a deep copy of the header with a fresh reference count.
func (h *Header) Clone() *Header {
	out := NewHeader()

	if h == nil {
		return out
	}

	for _, name := range h.names {
		raw := make(json.RawMessage, len(h.attrs[name]))
		copy(raw, h.attrs[name])

		out.setRaw(name, raw)
	}

	return out
}

// Decode unmarshals the header attributes into a typed view such as a struct
// with mapstructure tags. Unknown attributes are ignored.
func (h *Header) Decode(v interface{}) error {
	plain := make(map[string]interface{})

	if h != nil {
		for name, raw := range h.attrs {
			var value interface{}

			if err := json.Unmarshal(raw, &value); err != nil {
				return errs.Wrapf(errs.InvalidArgument, err, "decode header attribute %q", name)
			}

			plain[name] = value
		}
	}

	if err := mapstructure.Decode(plain, v); err != nil {
		return errs.Wrap(errs.InvalidArgument, err, "decode header")
	}

	return nil
}

// MarshalJSON serializes the header as a JSON object with the attributes in
// insertion order.
func (h *Header) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, name := range h.names {
		if i > 0 {
			buf.WriteByte(',')
		}

		encName, err := json.Marshal(name)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidState, err, "serialize header")
		}

		buf.Write(encName)
		buf.WriteByte(':')
		buf.Write(h.attrs[name])
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the header contents with the parsed attributes of a
// JSON object.
func (h *Header) UnmarshalJSON(data []byte) error {
	parsed, err := ParseHeader(data)
	if err != nil {
		return err
	}

	h.names = parsed.names
	h.attrs = parsed.attrs

	return nil
}

func (h *Header) setRaw(attr string, raw json.RawMessage) {
	if _, ok := h.attrs[attr]; !ok {
		h.names = append(h.names, attr)
	}

	h.attrs[attr] = raw
}

// getFromHeaders looks an attribute up across a precedence-ordered header
// chain, returning the first hit. Nil headers in the chain are skipped.
func getFromHeaders(attr string, headers ...*Header) (string, bool) {
	for _, h := range headers {
		if value, ok := h.Get(attr); ok {
			return value, true
		}
	}

	return "", false
}
