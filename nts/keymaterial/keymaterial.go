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

// Package keymaterial loads the AEAD keys an NTS-aware tool needs to open
// encrypted extension fields, from a small INI file mapping a key id to a
// hex-encoded 32-octet AES-SIV key.
package keymaterial

import (
	"encoding/hex"
	"fmt"

	"github.com/go-ini/ini"
)

// Store is a key id to AEAD key mapping, keyed by the decimal string form
// of the NTS cookie's key id.
type Store map[string][]byte

// Load reads a key-material file shaped like:
//
//	[keys]
//	1 = 2b7e151628aed2a6abf7158809cf4f3c2b7e151628aed2a6abf7158809cf4f3c
//	2 = ...
//
// Each value must hex-decode to exactly 32 octets, the AES-SIV key width
// this module's cipher package requires.
func Load(path string) (Store, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reading key-material file: %w", err)
	}

	section := cfg.Section("keys")
	store := make(Store, len(section.Keys()))
	for _, k := range section.Keys() {
		key, err := hex.DecodeString(k.Value())
		if err != nil {
			return nil, fmt.Errorf("key id %s: %w", k.Name(), err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("key id %s: want 32 octets, got %d", k.Name(), len(key))
		}
		store[k.Name()] = key
	}
	return store, nil
}

// Get looks up the key for keyID, reporting ok=false if none is configured.
func (s Store) Get(keyID string) (key []byte, ok bool) {
	key, ok = s[keyID]
	return key, ok
}
