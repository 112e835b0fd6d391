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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Pad4(t *testing.T) {
	assert.Equal(t, 0, pad4(0))
	assert.Equal(t, 4, pad4(1))
	assert.Equal(t, 4, pad4(4))
	assert.Equal(t, 8, pad4(5))
	assert.Equal(t, 36, pad4(33))
}

func Test_ExtensionField_RoundTrip_UniqueIdentifier(t *testing.T) {
	f := UniqueIdentifier{ID: bytes.Repeat([]byte{0xAB}, 32)}

	var buf bytes.Buffer
	require.NoError(t, marshalFieldTo(&buf, f))

	u, consumed, err := deserializeUnparsed(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, buf.Len(), consumed)

	decoded, ok, err := decodeBasicField(u)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, f, decoded)
}

func Test_ExtensionField_UniqueIdentifier_TooShort(t *testing.T) {
	f := UniqueIdentifier{ID: bytes.Repeat([]byte{0xAB}, 16)}

	var buf bytes.Buffer
	require.NoError(t, marshalFieldTo(&buf, f))

	u, _, err := deserializeUnparsed(buf.Bytes())
	require.NoError(t, err)

	_, _, err = decodeBasicField(u)
	require.ErrorIs(t, err, ErrIncorrectLength)
}

func Test_ExtensionField_RoundTrip_NtsCookie(t *testing.T) {
	f := NtsCookie{Cookie: []byte("some opaque cookie bytes")}

	var buf bytes.Buffer
	require.NoError(t, marshalFieldTo(&buf, f))

	u, _, err := deserializeUnparsed(buf.Bytes())
	require.NoError(t, err)

	decoded, ok, err := decodeBasicField(u)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, f, decoded)
}

func Test_ExtensionField_RoundTrip_Placeholder(t *testing.T) {
	f := NtsCookiePlaceholder{CookieLength: 20}

	var buf bytes.Buffer
	require.NoError(t, marshalFieldTo(&buf, f))

	u, _, err := deserializeUnparsed(buf.Bytes())
	require.NoError(t, err)

	decoded, ok, err := decodeBasicField(u)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, f, decoded)
}

func Test_ExtensionField_Placeholder_NonZeroBodyRejected(t *testing.T) {
	f := NtsCookiePlaceholder{CookieLength: 12}

	var buf bytes.Buffer
	require.NoError(t, marshalFieldTo(&buf, f))
	corrupted := buf.Bytes()
	corrupted[4] = 0x01 // flip a supposedly-zero placeholder body byte

	u, _, err := deserializeUnparsed(corrupted)
	require.NoError(t, err)

	_, _, err = decodeBasicField(u)
	require.ErrorIs(t, err, ErrIncorrectLength)
}

func Test_ExtensionField_RoundTrip_Unknown(t *testing.T) {
	f := UnknownExtensionField{TypeID: 0x9999, Body: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}}

	var buf bytes.Buffer
	require.NoError(t, marshalFieldTo(&buf, f))

	u, _, err := deserializeUnparsed(buf.Bytes())
	require.NoError(t, err)

	decoded, ok, err := decodeBasicField(u)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, f, decoded)
}

func Test_ExtensionField_PaddingMustBeZero(t *testing.T) {
	f := NtsCookie{Cookie: []byte("abcdefghijklm")} // field_length 17, pads to 20

	var buf bytes.Buffer
	require.NoError(t, marshalFieldTo(&buf, f))
	data := buf.Bytes()
	data[len(data)-1] = 0xFF // corrupt the single padding byte

	_, _, err := deserializeUnparsed(data)
	require.ErrorIs(t, err, ErrIncorrectLength)
}

func Test_ExtensionField_BelowMinimumSizeRejected(t *testing.T) {
	// field_length of 8 is a legal multiple-of-4 frame but below minFieldSize (16).
	data := []byte{0x02, 0x04, 0x00, 0x08, 0, 0, 0, 0}
	_, _, err := deserializeUnparsed(data)
	require.ErrorIs(t, err, ErrIncorrectLength)
}

func Test_ExtensionField_EncryptedContainerTypeID_NotBasic(t *testing.T) {
	u := unparsedField{typeID: typeIDNtsEncryptedAndAuth, body: make([]byte, 16)}
	field, ok, err := decodeBasicField(u)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, field)
}
