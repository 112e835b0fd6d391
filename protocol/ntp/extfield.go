/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ntp

import (
	"encoding/binary"
	"io"
)

// Extension field type ids, as carried in the first 16 bits of an
// extension field header.
const (
	typeIDUniqueIdentifier     uint16 = 0x0104
	typeIDNtsCookie            uint16 = 0x0204
	typeIDNtsCookiePlaceholder uint16 = 0x0304
	typeIDNtsEncryptedAndAuth  uint16 = 0x0404
)

// minFieldSize is the smallest legal wire_length for any extension field:
// a 4-octet header plus 12 octets of body/padding.
const minFieldSize = 16

// minUniqueIdentifierSize is the smallest legal body length for a Unique
// Identifier field, per RFC 8915 section 5.3.
const minUniqueIdentifierSize = 32

// ExtensionField is one decoded extension field, carried in the clear or
// recovered from inside the encrypted container: a Unique Identifier, an
// NTS Cookie, an NTS Cookie
// Placeholder, or an unrecognized field preserved by type id and body.
type ExtensionField interface {
	typeID() uint16
	bodyLen() int
	marshalBodyTo(b []byte)
}

// UniqueIdentifier is RFC 8915's client-chosen nonce echoed by the server
// so the client can match a response to its request.
type UniqueIdentifier struct {
	ID []byte
}

func (f UniqueIdentifier) typeID() uint16      { return typeIDUniqueIdentifier }
func (f UniqueIdentifier) bodyLen() int        { return len(f.ID) }
func (f UniqueIdentifier) marshalBodyTo(b []byte) { copy(b, f.ID) }

// NtsCookie carries an opaque server-issued cookie a client replays on its
// next request.
type NtsCookie struct {
	Cookie []byte
}

func (f NtsCookie) typeID() uint16      { return typeIDNtsCookie }
func (f NtsCookie) bodyLen() int        { return len(f.Cookie) }
func (f NtsCookie) marshalBodyTo(b []byte) { copy(b, f.Cookie) }

// NtsCookiePlaceholder is a client request for the server to issue one
// more cookie than it otherwise would, of CookieLength octets; its body is
// always CookieLength zero octets.
type NtsCookiePlaceholder struct {
	CookieLength int
}

func (f NtsCookiePlaceholder) typeID() uint16 { return typeIDNtsCookiePlaceholder }
func (f NtsCookiePlaceholder) bodyLen() int   { return f.CookieLength }
func (f NtsCookiePlaceholder) marshalBodyTo(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// UnknownExtensionField preserves an extension field this package does not
// interpret, so it can be faithfully round-tripped.
type UnknownExtensionField struct {
	TypeID uint16
	Body   []byte
}

func (f UnknownExtensionField) typeID() uint16      { return f.TypeID }
func (f UnknownExtensionField) bodyLen() int        { return len(f.Body) }
func (f UnknownExtensionField) marshalBodyTo(b []byte) { copy(b, f.Body) }

// pad4 rounds n up to the next multiple of 4.
func pad4(n int) int {
	if n%4 == 0 {
		return n
	}
	return n + (4 - n%4)
}

// unparsedField is a single extension field as split off the wire, before
// its body has been interpreted: just a type id and a body slice with
// padding already stripped and validated.
type unparsedField struct {
	typeID uint16
	body   []byte
}

// deserializeUnparsed splits the next extension field off the front of
// data, validating the wire_length bookkeeping and padding, and returns the
// unparsed field along with the number of octets consumed.
func deserializeUnparsed(data []byte) (unparsedField, int, error) {
	if len(data) < 4 {
		return unparsedField{}, 0, ErrIncorrectLength
	}

	typeID := binary.BigEndian.Uint16(data[0:2])
	fieldLength := int(binary.BigEndian.Uint16(data[2:4]))

	if fieldLength < minFieldSize {
		return unparsedField{}, 0, ErrIncorrectLength
	}

	wireLength := pad4(fieldLength)
	if wireLength > len(data) {
		return unparsedField{}, 0, ErrIncorrectLength
	}

	body := data[4:fieldLength]
	padding := data[fieldLength:wireLength]
	for _, b := range padding {
		if b != 0 {
			return unparsedField{}, 0, ErrIncorrectLength
		}
	}

	return unparsedField{typeID: typeID, body: body}, wireLength, nil
}

// decodeBasicField interprets an unparsed field as one of the known
// non-encrypted variants, or preserves it as UnknownExtensionField. It
// returns ok=false if typeID identifies the encrypted container, which the
// container-level state machine must handle itself (it needs the raw body
// for nonce/ciphertext accounting, not a decoded ExtensionField).
func decodeBasicField(u unparsedField) (field ExtensionField, ok bool, err error) {
	switch u.typeID {
	case typeIDNtsEncryptedAndAuth:
		return nil, false, nil
	case typeIDUniqueIdentifier:
		if len(u.body) < minUniqueIdentifierSize {
			return nil, true, ErrIncorrectLength
		}
		id := make([]byte, len(u.body))
		copy(id, u.body)
		return UniqueIdentifier{ID: id}, true, nil
	case typeIDNtsCookie:
		cookie := make([]byte, len(u.body))
		copy(cookie, u.body)
		return NtsCookie{Cookie: cookie}, true, nil
	case typeIDNtsCookiePlaceholder:
		for _, b := range u.body {
			if b != 0 {
				return nil, true, ErrIncorrectLength
			}
		}
		return NtsCookiePlaceholder{CookieLength: len(u.body)}, true, nil
	default:
		body := make([]byte, len(u.body))
		copy(body, u.body)
		return UnknownExtensionField{TypeID: u.typeID, Body: body}, true, nil
	}
}

// marshalFieldTo writes field's wire encoding (header, body, zero padding)
// to w.
func marshalFieldTo(w io.Writer, field ExtensionField) error {
	body := field.bodyLen()
	fieldLength := 4 + body

	var header [4]byte
	binary.BigEndian.PutUint16(header[0:2], field.typeID())
	binary.BigEndian.PutUint16(header[2:4], uint16(fieldLength))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	b := make([]byte, body)
	field.marshalBodyTo(b)
	if _, err := w.Write(b); err != nil {
		return err
	}

	if pad := pad4(fieldLength) - fieldLength; pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}
