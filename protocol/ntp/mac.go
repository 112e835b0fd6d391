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
)

// MacMaxSize is the exclusive upper bound on the size of a legacy
// symmetric-key MAC trailer: a 4-octet key id plus at most 23 octets of
// digest, so the largest legal trailer is 27 octets.
const MacMaxSize = 28

// macMinSize is the smallest legal size of a MAC trailer: a bare 4-octet
// key id with a zero-length digest is legal; 1, 2 or 3 octets are not
// (too short to even hold a key id).
const macMinSize = 4

// Mac is the legacy (pre-NTS) symmetric-key MAC trailer that may follow the
// header and extension fields.
type Mac struct {
	KeyID uint32
	Value []byte
}

// parseMac interprets the trailing bytes of a packet as a legacy MAC. It
// rejects trailers shorter than macMinSize or at/above MacMaxSize, mirroring
// the original implementation's bounds check.
func parseMac(data []byte) (Mac, error) {
	if len(data) < macMinSize || len(data) >= MacMaxSize {
		return Mac{}, ErrIncorrectLength
	}
	value := make([]byte, len(data)-4)
	copy(value, data[4:])
	return Mac{KeyID: binary.BigEndian.Uint32(data[0:4]), Value: value}, nil
}

func (m Mac) wireLength() int {
	return 4 + len(m.Value)
}

func (m Mac) marshalBinaryTo(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:4], m.KeyID)
	copy(buf[4:], m.Value)
}
