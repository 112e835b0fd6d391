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

	"github.com/stretchr/testify/require"
)

func Test_Mac_Bounds(t *testing.T) {
	for length := 0; length < 40; length++ {
		data := make([]byte, length)
		_, err := parseMac(data)
		if length >= macMinSize && length < MacMaxSize {
			require.NoError(t, err, "length %d", length)
		} else {
			require.ErrorIs(t, err, ErrIncorrectLength, "length %d", length)
		}
	}
}

func Test_Mac_RoundTrip(t *testing.T) {
	m := Mac{KeyID: 0xdeadbeef, Value: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	buf := make([]byte, m.wireLength())
	m.marshalBinaryTo(buf)

	decoded, err := parseMac(buf)
	require.NoError(t, err)
	require.Equal(t, m, decoded)
}
