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
	"errors"
	"fmt"
)

// Parsing errors. The taxonomy is intentionally closed: every failure mode a
// packet parse can hit is one of these five. Four have no parameters and are
// exposed as sentinel errors checked with errors.Is; InvalidVersionError
// carries the offending version number and is checked with errors.As.
var (
	// ErrIncorrectLength covers every length mismatch the parser can hit: a
	// short header, a short extension field, a body shorter than declared,
	// non-zero padding, a non-zero placeholder body, a MAC outside [4, 28),
	// or an encrypted-container length accounting mismatch.
	ErrIncorrectLength = errors.New("ntp: incorrect packet length")

	// ErrMalformedExtensionFields signals a second encrypted container, or a
	// nested encrypted container found while parsing decrypted plaintext.
	ErrMalformedExtensionFields = errors.New("ntp: malformed nts extension fields")

	// ErrMalformedNonce signals a nonce whose length is not exactly 16 octets.
	ErrMalformedNonce = errors.New("ntp: malformed nonce")

	// ErrDecrypt signals an AEAD authentication failure: the tag did not
	// verify, so the ciphertext is treated as tampered.
	ErrDecrypt = errors.New("ntp: failed to decrypt nts extension field")
)

// InvalidVersionError is returned when the first octet encodes a version
// other than 3 or 4.
type InvalidVersionError struct {
	Version uint8
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("ntp: invalid version %d", e.Version)
}
