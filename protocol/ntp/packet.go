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
	"crypto/cipher"
	"crypto/rand"
	"math/big"
)

// Packet is a fully decoded NTP v3/v4 packet: the fixed header, its
// extension fields partitioned by trust level, and an optional legacy MAC
// trailer.
type Packet struct {
	Header     Header
	Extensions ExtensionFieldData
	Mac        *Mac
}

// RequestIdentifier is returned alongside an outgoing poll packet so a
// later response can be matched back to it by origin-timestamp equality.
type RequestIdentifier struct {
	expectedOriginTimestamp NtpTimestamp
}

// Parse decodes data as an NTP packet. v3 packets never carry extension
// fields: any trailing bytes after the header are read directly as a
// legacy MAC. v4 packets hand the post-header bytes to the extension-field
// container, which uses aead to open any encrypted/authenticated field it
// finds.
func Parse(data []byte, aead cipher.AEAD) (Packet, error) {
	if len(data) < HeaderSize {
		return Packet{}, ErrIncorrectLength
	}

	header, err := parseHeader(data[:HeaderSize])
	if err != nil {
		return Packet{}, err
	}

	rest := data[HeaderSize:]

	if header.Version == VersionV3 {
		mac, err := parseOptionalMac(rest)
		if err != nil {
			return Packet{}, err
		}
		return Packet{Header: header, Mac: mac}, nil
	}

	efdata, consumed, err := parseExtensionFieldData(data[:HeaderSize], rest, aead)
	if err != nil {
		return Packet{}, err
	}

	mac, err := parseOptionalMac(rest[consumed:])
	if err != nil {
		return Packet{}, err
	}

	return Packet{Header: header, Extensions: efdata, Mac: mac}, nil
}

// ParseInsecure decodes data without access to the real negotiated NTS key,
// using a zero-key AEAD. An encrypted container sealed under any other key
// fails to decrypt, and the whole parse then fails with ErrDecrypt; this
// exists for test fixtures and for packets that carry no encrypted
// container.
func ParseInsecure(data []byte) (Packet, error) {
	aead, err := ZeroKeyCipher()
	if err != nil {
		return Packet{}, err
	}
	return Parse(data, aead)
}

func parseOptionalMac(rest []byte) (*Mac, error) {
	if len(rest) == 0 {
		return nil, nil
	}
	mac, err := parseMac(rest)
	if err != nil {
		return nil, err
	}
	return &mac, nil
}

// Serialize writes p into buf: the header (tagged with p.Header.Version),
// v4-only extension fields (sealing p.Extensions.Encrypted under aead and
// nonce whenever Authenticated or Encrypted is non-empty), then an optional
// MAC trailer. buf must be pre-sized
// to the packet's maximum envelope; running out of room fails the write.
func (p Packet) Serialize(buf []byte, aead cipher.AEAD, nonce []byte) (int, error) {
	c := newCursor(buf)

	var hdr [HeaderSize]byte
	p.Header.marshalBinaryTo(hdr[:])
	if _, err := c.Write(hdr[:]); err != nil {
		return 0, err
	}

	if p.Header.Version == VersionV4 {
		if err := serializeExtensionFieldData(c, nil, p.Extensions, aead, nonce); err != nil {
			return 0, err
		}
	}

	if p.Mac != nil {
		macBuf := make([]byte, p.Mac.wireLength())
		p.Mac.marshalBinaryTo(macBuf)
		if _, err := c.Write(macBuf); err != nil {
			return 0, err
		}
	}

	return c.Len(), nil
}

// SerializeInsecure writes p using a zero-key cipher and a fixed all-zero
// nonce, for v3 packets or any v4 packet that carries neither Authenticated
// nor Encrypted fields (the zero key/nonce are never exercised in that case;
// otherwise the container is sealed under them).
func (p Packet) SerializeInsecure(buf []byte) (int, error) {
	aead, err := ZeroKeyCipher()
	if err != nil {
		return 0, err
	}
	return p.Serialize(buf, aead, make([]byte, nonceSize))
}

// GenerateNonce returns a fresh, unpredictable 16-octet nonce suitable for
// Serialize. Every sealed packet under a given key must use a distinct
// nonce; callers must not reuse one.
func GenerateNonce() ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}

// TimestampResponse builds a server response to input, mirroring input's
// poll interval and stamping origin_timestamp from input's transmit
// timestamp, receive_timestamp from recvTimestamp, and the remaining
// system fields from snapshot. The transmit timestamp is read from clock
// last, to minimize the jitter it measures.
func TimestampResponse(snapshot SystemSnapshot, input Packet, recvTimestamp NtpTimestamp, clock Clock) (Packet, error) {
	h := Header{
		Version:            VersionV4,
		Leap:               LeapNoWarning,
		Mode:               ModeServer,
		Stratum:            snapshot.Stratum,
		Poll:               input.Header.Poll,
		Precision:          snapshot.Precision,
		RootDelay:          snapshot.RootDelay,
		RootDispersion:     snapshot.RootDispersion,
		ReferenceId:        snapshot.ReferenceId,
		ReferenceTimestamp: snapshot.ReferenceTime,
		OriginTimestamp:    input.Header.TransmitTimestamp,
		ReceiveTimestamp:   recvTimestamp,
	}

	now, err := clock.Now()
	if err != nil {
		return Packet{}, err
	}
	h.TransmitTimestamp = now

	return Packet{Header: h}, nil
}

// RateLimitResponse builds a "back off" kiss response to input.
func RateLimitResponse(input Packet) Packet {
	return kissResponse(input, ReferenceIdRate)
}

// DenyResponse builds a "not serving you" kiss response to input.
func DenyResponse(input Packet) Packet {
	return kissResponse(input, ReferenceIdDeny)
}

func kissResponse(input Packet, code ReferenceId) Packet {
	return Packet{Header: Header{
		Version:         VersionV4,
		Leap:            LeapUnknown,
		Mode:            ModeServer,
		Stratum:         0,
		ReferenceId:     code,
		OriginTimestamp: input.Header.TransmitTimestamp,
	}}
}

// PollMessage builds a fresh, unauthenticated v4 poll request with a
// randomly generated transmit timestamp, returning the packet and the
// RequestIdentifier needed to validate the eventual response.
func PollMessage() (Packet, RequestIdentifier, error) {
	ts, err := randomTimestamp()
	if err != nil {
		return Packet{}, RequestIdentifier{}, err
	}

	p := Packet{Header: Header{
		Version:           VersionV4,
		Leap:              LeapNoWarning,
		Mode:              ModeClient,
		TransmitTimestamp: ts,
	}}
	return p, RequestIdentifier{expectedOriginTimestamp: ts}, nil
}

// NTSPollMessage builds an NTS-authenticated poll request: a plain poll
// message plus UniqueIdentifier and NtsCookie extension fields written
// ahead of the (possibly empty) encrypted container, so Packet.Serialize
// binds them into the container's associated data. The caller still
// supplies an AEAD and nonce to Serialize to actually seal the packet.
func NTSPollMessage(uniqueID []byte, cookie []byte) (Packet, RequestIdentifier, error) {
	return ntsPollMessage(uniqueID, cookie, 0)
}

// NTSPollMessageRequestExtraCookies is NTSPollMessage plus extraCookies
// NtsCookiePlaceholder fields, each requesting one more cookie of the same
// length as cookie, to replenish the client's cookie supply.
func NTSPollMessageRequestExtraCookies(uniqueID []byte, cookie []byte, extraCookies int) (Packet, RequestIdentifier, error) {
	return ntsPollMessage(uniqueID, cookie, extraCookies)
}

func ntsPollMessage(uniqueID []byte, cookie []byte, extraCookies int) (Packet, RequestIdentifier, error) {
	p, id, err := PollMessage()
	if err != nil {
		return Packet{}, RequestIdentifier{}, err
	}

	p.Extensions.Authenticated = []ExtensionField{
		UniqueIdentifier{ID: uniqueID},
		NtsCookie{Cookie: cookie},
	}
	for i := 0; i < extraCookies; i++ {
		p.Extensions.Authenticated = append(p.Extensions.Authenticated, NtsCookiePlaceholder{CookieLength: len(cookie)})
	}

	return p, id, nil
}

// ValidServerResponse reports whether the response's origin timestamp
// matches the request identifier returned by the poll that generated it.
func (p Packet) ValidServerResponse(id RequestIdentifier) bool {
	return p.Header.OriginTimestamp == id.expectedOriginTimestamp
}

// IsKiss reports whether p is a Kiss-o'-Death response (stratum 0).
func (p Packet) IsKiss() bool {
	return p.Header.Stratum == 0
}

// IsKissDeny reports whether p is a Kiss-o'-Death DENY response.
func (p Packet) IsKissDeny() bool {
	return p.IsKiss() && p.Header.ReferenceId == ReferenceIdDeny
}

// IsKissRate reports whether p is a Kiss-o'-Death RATE response.
func (p Packet) IsKissRate() bool {
	return p.IsKiss() && p.Header.ReferenceId == ReferenceIdRate
}

// IsKissRstr reports whether p is a Kiss-o'-Death RSTR response.
func (p Packet) IsKissRstr() bool {
	return p.IsKiss() && p.Header.ReferenceId == ReferenceIdRstr
}

// IsKissNtsn reports whether p is a Kiss-o'-Death NTSN (NTS NAK) response.
func (p Packet) IsKissNtsn() bool {
	return p.IsKiss() && p.Header.ReferenceId == ReferenceIdNtsn
}

func randomTimestamp() (NtpTimestamp, error) {
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil {
		return 0, err
	}
	return NtpTimestamp(n.Uint64()), nil
}
