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

// HeaderSize is the fixed wire size of the NTP v3/v4 header, in octets.
const HeaderSize = 48

// Header is the 48-octet fixed NTP header shared by v3 and v4 packets. The
// Rust original this is ported from carries it as an NtpHeader enum with a
// V3/V4 variant per version, but both variants carry identical fields; the
// version tag is folded into the Version field here since Go has no
// zero-cost sum type for "same payload, different tag".
type Header struct {
	Version            Version
	Leap               LeapIndicator
	Mode               AssociationMode
	Stratum            uint8
	Poll               int8
	Precision          int8
	RootDelay          NtpDuration
	RootDispersion     NtpDuration
	ReferenceId        ReferenceId
	ReferenceTimestamp NtpTimestamp
	OriginTimestamp    NtpTimestamp
	ReceiveTimestamp   NtpTimestamp
	TransmitTimestamp  NtpTimestamp
}

// parseHeader decodes the fixed 48-octet header from the front of data. It
// does not validate that len(data) >= HeaderSize beyond what indexing would
// panic on; callers (Parse/ParseInsecure) check that first.
func parseHeader(data []byte) (Header, error) {
	leap, version, mode, err := decodeFirstOctet(data[0])
	if err != nil {
		return Header{}, err
	}

	h := Header{
		Version:            version,
		Leap:               leap,
		Mode:               mode,
		Stratum:            data[1],
		Poll:               int8(data[2]),
		Precision:          int8(data[3]),
		RootDelay:          decodeNtpDuration(data[4:8]),
		RootDispersion:     decodeNtpDuration(data[8:12]),
		ReferenceId:        decodeReferenceId(data[12:16]),
		ReferenceTimestamp: decodeNtpTimestamp(data[16:24]),
		OriginTimestamp:    decodeNtpTimestamp(data[24:32]),
		ReceiveTimestamp:   decodeNtpTimestamp(data[32:40]),
		TransmitTimestamp:  decodeNtpTimestamp(data[40:48]),
	}
	return h, nil
}

// marshalBinaryTo writes the fixed 48-octet header into the front of buf,
// which must be at least HeaderSize octets long.
func (h Header) marshalBinaryTo(buf []byte) {
	buf[0] = encodeFirstOctet(h.Leap, h.Version, h.Mode)
	buf[1] = h.Stratum
	buf[2] = byte(h.Poll)
	buf[3] = byte(h.Precision)
	h.RootDelay.encode(buf[4:8])
	h.RootDispersion.encode(buf[8:12])
	h.ReferenceId.encode(buf[12:16])
	h.ReferenceTimestamp.encode(buf[16:24])
	h.OriginTimestamp.encode(buf[24:32])
	h.ReceiveTimestamp.encode(buf[32:40])
	h.TransmitTimestamp.encode(buf[40:48])
}
