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

	"github.com/miscreant/miscreant.go"
)

// nonceSize is the fixed nonce length this codec accepts and produces for
// the NTS encrypted/authenticated extension field. Any other length is
// ErrMalformedNonce.
const nonceSize = 16

// keySize is the AES-128-SIV key length: two 128-bit subkeys.
const keySize = 32

// NewAeadCipher builds the AES-128-SIV AEAD used to seal and open the NTS
// encrypted/authenticated extension field from a 32-octet key negotiated
// out of band (NTS-KE).
func NewAeadCipher(key []byte) (cipher.AEAD, error) {
	if len(key) != keySize {
		return nil, ErrIncorrectLength
	}
	return miscreant.NewAEAD("AES-SIV", key, nonceSize)
}

// ZeroKeyCipher builds an AEAD over an all-zero key, used by
// ParseInsecure/SerializeInsecure when no negotiated key is at hand. It
// opens only containers that were themselves sealed under the zero key.
func ZeroKeyCipher() (cipher.AEAD, error) {
	return NewAeadCipher(make([]byte, keySize))
}
