// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package settings

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Encrypter is an AEAD. associatedData binds a ciphertext to its setting key.
type Encrypter interface {
	Encrypt(plaintext, associatedData []byte) ([]byte, error)
	Decrypt(ciphertext, associatedData []byte) ([]byte, error)
}

// EncryptedPrefix marks a stored JSON string as ciphertext.
const EncryptedPrefix = "enc:v1:"

type encryptionLayer struct {
	next Repository
	reg  *Registry
	enc  Encrypter
}

// WithEncryption encrypts values of Encrypted definitions before they are
// stored and decrypts them on the way out. enc may be nil if no definition
// is encrypted.
func WithEncryption(reg *Registry, enc Encrypter) Layer {
	return func(next Repository) Repository {
		return &encryptionLayer{next: next, reg: reg, enc: enc}
	}
}

func (l *encryptionLayer) encrypted(name string) bool {
	def, ok := l.reg.Lookup(name)
	return ok && def.Encrypted
}

func (l *encryptionLayer) seal(name string, value json.RawMessage) (json.RawMessage, error) {
	if !l.encrypted(name) {
		return value, nil
	}
	if l.enc == nil {
		return nil, fmt.Errorf("%w: cannot store %s", ErrEncryptionUnavailable, name)
	}
	ct, err := l.enc.Encrypt(value, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt %s: %w", name, err)
	}
	return json.Marshal(EncryptedPrefix + base64.StdEncoding.EncodeToString(ct))
}

// open decrypts a stored value. Plain values of an encrypted setting, written
// before encryption was turned on, are returned as they are.
func (l *encryptionLayer) open(name string, stored json.RawMessage) (json.RawMessage, error) {
	if !l.encrypted(name) {
		return stored, nil
	}
	var s string
	if err := json.Unmarshal(stored, &s); err != nil || !strings.HasPrefix(s, EncryptedPrefix) {
		return stored, nil
	}
	if l.enc == nil {
		return nil, fmt.Errorf("%w: cannot read %s", ErrEncryptionUnavailable, name)
	}
	ct, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, EncryptedPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecrypt, name, err)
	}
	pt, err := l.enc.Decrypt(ct, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecrypt, name, err)
	}
	return pt, nil
}

func (l *encryptionLayer) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	stored, err := l.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return l.open(key.Name, stored)
}

func (l *encryptionLayer) Set(ctx context.Context, key Key, value json.RawMessage) error {
	sealed, err := l.seal(key.Name, value)
	if err != nil {
		return err
	}
	return l.next.Set(ctx, key, sealed)
}

func (l *encryptionLayer) SetMany(ctx context.Context, values []KeyValue) error {
	sealed := make([]KeyValue, len(values))
	for i, kv := range values {
		v, err := l.seal(kv.Key.Name, kv.Value)
		if err != nil {
			return err
		}
		sealed[i] = KeyValue{Key: kv.Key, Value: v}
	}
	return SetMany(ctx, l.next, sealed)
}

func (l *encryptionLayer) Delete(ctx context.Context, key Key) error {
	return l.next.Delete(ctx, key)
}

func (l *encryptionLayer) List(ctx context.Context, scope Scope) ([]Entry, error) {
	entries, err := l.next.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		v, err := l.open(entries[i].Name, entries[i].Value)
		if err != nil {
			return nil, err
		}
		entries[i].Value = v
	}
	return entries, nil
}
