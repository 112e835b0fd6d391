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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Packet_RoundTrip_CapturedV4Client(t *testing.T) {
	data := hexBytes(t, capturedV4ClientHex)

	p, err := ParseInsecure(data)
	require.NoError(t, err)
	require.Nil(t, p.Mac)
	require.Empty(t, p.Extensions.Authenticated)
	require.Empty(t, p.Extensions.Encrypted)
	require.Empty(t, p.Extensions.Untrusted)

	buf := make([]byte, HeaderSize)
	n, err := p.SerializeInsecure(buf)
	require.NoError(t, err)
	require.Equal(t, data, buf[:n])
}

func Test_Packet_RoundTrip_CapturedV3Client(t *testing.T) {
	data := hexBytes(t, capturedV4ClientHex)
	data[0] = 0x1B

	p, err := ParseInsecure(data)
	require.NoError(t, err)
	require.Equal(t, VersionV3, p.Header.Version)

	buf := make([]byte, HeaderSize)
	n, err := p.SerializeInsecure(buf)
	require.NoError(t, err)
	require.Equal(t, data, buf[:n])
}

func Test_Packet_Parse_EmptyInput(t *testing.T) {
	_, err := ParseInsecure(nil)
	require.ErrorIs(t, err, ErrIncorrectLength)
}

func Test_Packet_Parse_InvalidVersion(t *testing.T) {
	for _, first := range []byte{0x04, 0x0B, 0x14, 0x2B, 0x34, 0x3B} {
		data := hexBytes(t, capturedV4ClientHex)
		data[0] = first
		_, err := ParseInsecure(data)
		var verr *InvalidVersionError
		require.ErrorAs(t, err, &verr, "first octet 0x%02x", first)
	}
}

func Test_Packet_Parse_ExhaustiveFlagSweep(t *testing.T) {
	data := hexBytes(t, capturedV4ClientHex)
	for b := 0; b < 256; b++ {
		trial := append([]byte(nil), data...)
		trial[0] = byte(b)

		p, err := ParseInsecure(trial)
		if err != nil {
			continue
		}

		buf := make([]byte, HeaderSize)
		n, serr := p.SerializeInsecure(buf)
		require.NoError(t, serr)
		assert.Equal(t, trial, buf[:n], "first octet 0x%02x", b)
	}
}

func fixedClock(ts NtpTimestamp) Clock {
	return fixedClockFunc(func() (NtpTimestamp, error) { return ts, nil })
}

type fixedClockFunc func() (NtpTimestamp, error)

func (f fixedClockFunc) Now() (NtpTimestamp, error) { return f() }

func Test_TimestampResponse_Mirror(t *testing.T) {
	req, id, err := PollMessage()
	require.NoError(t, err)

	snapshot := SystemSnapshot{Stratum: 1, ReferenceId: ReferenceId{'G', 'P', 'S', 0}}
	resp, err := TimestampResponse(snapshot, req, NtpTimestamp(0x1111), fixedClock(NtpTimestamp(0x2222)))
	require.NoError(t, err)

	require.Equal(t, req.Header.TransmitTimestamp, resp.Header.OriginTimestamp)
	require.True(t, resp.ValidServerResponse(id))
	require.Equal(t, NtpTimestamp(0x2222), resp.Header.TransmitTimestamp)
}

func Test_ValidServerResponse_MismatchedOrigin(t *testing.T) {
	_, id, err := PollMessage()
	require.NoError(t, err)

	other, _, err := PollMessage()
	require.NoError(t, err)

	require.False(t, other.ValidServerResponse(id))
}

func Test_PollMessage_Randomness(t *testing.T) {
	p1, _, err := PollMessage()
	require.NoError(t, err)
	p2, _, err := PollMessage()
	require.NoError(t, err)

	require.NotEqual(t, p1.Header.TransmitTimestamp, p2.Header.TransmitTimestamp)
}

func Test_RateLimitAndDenyResponses(t *testing.T) {
	req, _, err := PollMessage()
	require.NoError(t, err)

	rate := RateLimitResponse(req)
	require.True(t, rate.IsKiss())
	require.True(t, rate.IsKissRate())
	require.False(t, rate.IsKissDeny())
	require.Equal(t, req.Header.TransmitTimestamp, rate.Header.OriginTimestamp)

	deny := DenyResponse(req)
	require.True(t, deny.IsKiss())
	require.True(t, deny.IsKissDeny())
	require.False(t, deny.IsKissRate())
}

func Test_NTSPollMessage_CarriesAuthenticatedFields(t *testing.T) {
	uniqueID := []byte("0123456789abcdef0123456789abcdef")
	cookie := []byte("some cookie bytes")

	p, _, err := NTSPollMessageRequestExtraCookies(uniqueID, cookie, 2)
	require.NoError(t, err)
	require.Len(t, p.Extensions.Authenticated, 4) // id + cookie + 2 placeholders

	key := make([]byte, keySize)
	aead, err := NewAeadCipher(key)
	require.NoError(t, err)
	nonce := make([]byte, nonceSize)

	buf := make([]byte, 1500)
	n, err := p.Serialize(buf, aead, nonce)
	require.NoError(t, err)

	parsed, err := Parse(buf[:n], aead)
	require.NoError(t, err)
	require.Len(t, parsed.Extensions.Authenticated, 4)
}
