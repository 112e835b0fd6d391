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
	"bytes"
	"crypto/cipher"
	"encoding/binary"
)

// ExtensionFieldData partitions a packet's extension fields by trust level.
// Authenticated and Untrusted fields that arrived before the encrypted
// container are carried in cleartext; Encrypted fields are the plaintext
// recovered from inside the AEAD-sealed container.
//
// Authenticated is distinct from Untrusted only in provenance: fields that
// preceded a successfully-decrypted container are promoted into
// Authenticated (the container's AAD covers them, so tampering would have
// failed the AEAD check); fields that follow it, or that arrived with no
// container at all, stay Untrusted.
type ExtensionFieldData struct {
	Authenticated []ExtensionField
	Encrypted     []ExtensionField
	Untrusted     []ExtensionField
}

// parseExtensionFieldData walks data (the packet bytes following the fixed
// header, including any legacy MAC trailer) decoding
// extension fields and, if an encrypted container is found, decrypting it
// with aead using prefix||data-consumed-so-far as associated data.
//
// Parsing stops once fewer than MacMaxSize octets remain, on the theory
// that what's left is a legacy MAC trailer rather than another field --
// mirroring Mac.MAXIMUM_SIZE as the lookahead threshold.
func parseExtensionFieldData(prefix, data []byte, aead cipher.AEAD) (ExtensionFieldData, int, error) {
	var out ExtensionFieldData
	pos := 0
	sawEncrypted := false

	for len(data)-pos >= MacMaxSize {
		u, consumed, err := deserializeUnparsed(data[pos:])
		if err != nil {
			return ExtensionFieldData{}, 0, err
		}

		field, ok, err := decodeBasicField(u)
		if err != nil {
			return ExtensionFieldData{}, 0, err
		}

		if ok {
			pos += consumed
			// Fields before the container are provisionally untrusted
			// until promoted below; fields after it stay untrusted since
			// the container's AAD does not cover them.
			out.Untrusted = append(out.Untrusted, field)
			continue
		}

		// Encrypted/authenticated container.
		if sawEncrypted {
			return ExtensionFieldData{}, 0, ErrMalformedExtensionFields
		}
		sawEncrypted = true

		aad := make([]byte, 0, len(prefix)+pos)
		aad = append(aad, prefix...)
		aad = append(aad, data[:pos]...)

		plaintext, err := decryptContainerBody(u.body, aad, aead)
		if err != nil {
			return ExtensionFieldData{}, 0, err
		}

		// Everything accumulated into Untrusted so far precedes a
		// successfully-authenticated container: promote it.
		out.Authenticated = out.Untrusted
		out.Untrusted = nil

		encryptedFields, err := parsePlaintextFields(plaintext)
		if err != nil {
			return ExtensionFieldData{}, 0, err
		}
		out.Encrypted = encryptedFields

		pos += consumed
	}

	return out, pos, nil
}

// parsePlaintextFields decodes the extension fields recovered from inside
// the encrypted container. A nested encrypted container here is malformed:
// NTS does not allow encrypting an encrypted field.
func parsePlaintextFields(plaintext []byte) ([]ExtensionField, error) {
	var fields []ExtensionField
	pos := 0
	for pos < len(plaintext) {
		u, consumed, err := deserializeUnparsed(plaintext[pos:])
		if err != nil {
			return nil, err
		}
		field, ok, err := decodeBasicField(u)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrMalformedExtensionFields
		}
		fields = append(fields, field)
		pos += consumed
	}
	return fields, nil
}

// decryptContainerBody parses the nonce/ciphertext length-prefixed body of
// an encrypted/authenticated extension field and opens it with aead.
func decryptContainerBody(body, aad []byte, aead cipher.AEAD) ([]byte, error) {
	if len(body) < 4 {
		return nil, ErrIncorrectLength
	}

	nonceLen := int(binary.BigEndian.Uint16(body[0:2]))
	ctLen := int(binary.BigEndian.Uint16(body[2:4]))

	if 4+pad4(nonceLen)+pad4(ctLen) != pad4(len(body)) {
		return nil, ErrIncorrectLength
	}
	if nonceLen != nonceSize {
		return nil, ErrMalformedNonce
	}

	nonceStart := 4
	nonceEnd := nonceStart + nonceLen
	if nonceEnd > len(body) {
		return nil, ErrIncorrectLength
	}
	nonce := body[nonceStart:nonceEnd]

	noncePadEnd := nonceStart + pad4(nonceLen)
	if noncePadEnd > len(body) {
		return nil, ErrIncorrectLength
	}
	for _, b := range body[nonceEnd:noncePadEnd] {
		if b != 0 {
			return nil, ErrIncorrectLength
		}
	}

	ctStart := noncePadEnd
	ctEnd := ctStart + ctLen
	if ctEnd > len(body) {
		return nil, ErrIncorrectLength
	}
	ciphertext := body[ctStart:ctEnd]

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// serializeExtensionFieldData writes buf's Authenticated fields in the
// clear, then — if either Authenticated or Encrypted is non-empty — an
// encrypted/authenticated container sealing the Encrypted fields (possibly
// none, to simply bind the Authenticated fields into the container's
// associated data), then the Untrusted fields in the clear. prefix is the
// associated-data context preceding buf's own bytes written so far.
func serializeExtensionFieldData(buf byteWriter, prefix []byte, efdata ExtensionFieldData, aead cipher.AEAD, nonce []byte) error {
	for _, f := range efdata.Authenticated {
		if err := marshalFieldTo(buf, f); err != nil {
			return err
		}
	}

	if len(efdata.Authenticated) > 0 || len(efdata.Encrypted) > 0 {
		var plaintext bytes.Buffer
		for _, f := range efdata.Encrypted {
			if err := marshalFieldTo(&plaintext, f); err != nil {
				return err
			}
		}

		if len(nonce) != nonceSize {
			return ErrMalformedNonce
		}

		aad := make([]byte, 0, len(prefix)+buf.Len())
		aad = append(aad, prefix...)
		aad = append(aad, buf.Bytes()...)

		ciphertext := aead.Seal(nil, nonce, plaintext.Bytes(), aad)

		var body bytes.Buffer
		var lens [4]byte
		binary.BigEndian.PutUint16(lens[0:2], uint16(len(nonce)))
		binary.BigEndian.PutUint16(lens[2:4], uint16(len(ciphertext)))
		body.Write(lens[:])
		body.Write(nonce)
		if pad := pad4(nonceSize) - nonceSize; pad > 0 {
			body.Write(make([]byte, pad))
		}
		body.Write(ciphertext)
		if pad := pad4(len(ciphertext)) - len(ciphertext); pad > 0 {
			body.Write(make([]byte, pad))
		}

		if err := marshalFieldTo(buf, UnknownExtensionField{TypeID: typeIDNtsEncryptedAndAuth, Body: body.Bytes()}); err != nil {
			return err
		}
	}

	for _, f := range efdata.Untrusted {
		if err := marshalFieldTo(buf, f); err != nil {
			return err
		}
	}

	return nil
}
