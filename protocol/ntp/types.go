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
	"time"
)

// NtpTimestamp is the opaque 64-bit NTP timestamp: 32 bits of seconds since
// the NTP epoch followed by 32 bits of binary fraction. Header.Reference/
// Origin/Receive/TransmitTimestamp carry it as-is; the codec never
// interprets the value beyond byte-for-byte round trip and equality, and
// only WallClock/NewNtpTimestamp convert it to and from wall-clock time.
type NtpTimestamp uint64

func decodeNtpTimestamp(b []byte) NtpTimestamp {
	return NtpTimestamp(binary.BigEndian.Uint64(b))
}

func (t NtpTimestamp) encode(b []byte) {
	binary.BigEndian.PutUint64(b, uint64(t))
}

// WallClock interprets t as a 32-bit-seconds/32-bit-fraction pair and
// converts it to a Unix time, via Unix.
func (t NtpTimestamp) WallClock() time.Time {
	return Unix(uint32(t>>32), uint32(t))
}

// NewNtpTimestamp packs a Unix time into the 32-bit-seconds/32-bit-fraction
// form NtpTimestamp carries on the wire, via Time.
func NewNtpTimestamp(wallClock time.Time) NtpTimestamp {
	sec, frac := Time(wallClock)
	return NtpTimestamp(uint64(sec)<<32 | uint64(frac))
}

// NtpDuration is the 32-bit NTP "short" fixed-point format used for root
// delay and root dispersion: 16 bits of seconds, 16 bits of binary fraction.
type NtpDuration uint32

func decodeNtpDuration(b []byte) NtpDuration {
	return NtpDuration(binary.BigEndian.Uint32(b))
}

func (d NtpDuration) encode(b []byte) {
	binary.BigEndian.PutUint32(b, uint32(d))
}

// ReferenceId is the opaque 4-octet reference identifier. For stratum 0 kiss
// packets, its bytes are overloaded with an ASCII kiss code; otherwise it is
// a reference clock identifier or the IPv4 address of the system peer.
type ReferenceId [4]byte

// Kiss-o'-Death reference ids, each exactly 4 ASCII octets.
var (
	ReferenceIdRate = ReferenceId{'R', 'A', 'T', 'E'}
	ReferenceIdDeny = ReferenceId{'D', 'E', 'N', 'Y'}
	ReferenceIdRstr = ReferenceId{'R', 'S', 'T', 'R'}
	ReferenceIdNtsn = ReferenceId{'N', 'T', 'S', 'N'}
)

func decodeReferenceId(b []byte) ReferenceId {
	var r ReferenceId
	copy(r[:], b[:4])
	return r
}

func (r ReferenceId) encode(b []byte) {
	copy(b[:4], r[:])
}

// PollInterval is the signed log2-seconds poll exponent.
type PollInterval int8

// SystemSnapshot is an opaque bundle of the fields a server mirrors into its
// response header, sourced from the local system/clock state rather than
// from the request packet.
type SystemSnapshot struct {
	Stratum        uint8
	ReferenceId    ReferenceId
	Precision      int8
	RootDelay      NtpDuration
	RootDispersion NtpDuration
	ReferenceTime  NtpTimestamp
}

// Clock is the single-method collaborator a caller supplies so response
// builders can stamp a transmit timestamp without this package
// reaching for wall-clock time itself.
type Clock interface {
	Now() (NtpTimestamp, error)
}
