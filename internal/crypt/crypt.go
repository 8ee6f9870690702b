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

// Package crypt encrypts setting values with a Tink AEAD keyset.
//
// Keysets are stored as cleartext JSON, either in a file or base64-encoded
// in an environment variable. Rotating a keyset adds a new primary key; values
// written under older keys stay readable as long as those keys remain in the
// keyset.
package crypt

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/tink/go/aead"
	"github.com/google/tink/go/insecurecleartextkeyset"
	"github.com/google/tink/go/keyset"
	"github.com/google/tink/go/tink"
)

var ErrNoKeyset = errors.New("no encryption keyset configured")

// TinkEncrypter implements settings.Encrypter.
type TinkEncrypter struct {
	aead   tink.AEAD
	handle *keyset.Handle
}

func NewTinkEncrypter(h *keyset.Handle) (*TinkEncrypter, error) {
	a, err := aead.New(h)
	if err != nil {
		return nil, fmt.Errorf("keyset has no AEAD primitive: %w", err)
	}
	return &TinkEncrypter{aead: a, handle: h}, nil
}

func (e *TinkEncrypter) Encrypt(plaintext, associatedData []byte) ([]byte, error) {
	return e.aead.Encrypt(plaintext, associatedData)
}

func (e *TinkEncrypter) Decrypt(ciphertext, associatedData []byte) ([]byte, error) {
	return e.aead.Decrypt(ciphertext, associatedData)
}

// PrimaryKeyID identifies the key new values are encrypted with.
func (e *TinkEncrypter) PrimaryKeyID() uint32 {
	return e.handle.KeysetInfo().GetPrimaryKeyId()
}

// GenerateKeyset creates a keyset with a single AES-256-GCM key.
func GenerateKeyset() (*keyset.Handle, error) {
	return keyset.NewHandle(aead.AES256GCMKeyTemplate())
}

// RotateKeyset returns a copy of h with a fresh AES-256-GCM key as primary.
// h itself is left unchanged.
func RotateKeyset(h *keyset.Handle) (*keyset.Handle, error) {
	clone, err := cloneKeyset(h)
	if err != nil {
		return nil, err
	}
	m := keyset.NewManagerFromHandle(clone)
	id, err := m.Add(aead.AES256GCMKeyTemplate())
	if err != nil {
		return nil, fmt.Errorf("failed to add key: %w", err)
	}
	if err := m.SetPrimary(id); err != nil {
		return nil, fmt.Errorf("failed to promote key %d: %w", id, err)
	}
	return m.Handle()
}

// cloneKeyset copies h; a keyset.Manager edits the handle's keyset in place.
func cloneKeyset(h *keyset.Handle) (*keyset.Handle, error) {
	var buf bytes.Buffer
	if err := insecurecleartextkeyset.Write(h, keyset.NewBinaryWriter(&buf)); err != nil {
		return nil, fmt.Errorf("failed to copy keyset: %w", err)
	}
	clone, err := insecurecleartextkeyset.Read(keyset.NewBinaryReader(&buf))
	if err != nil {
		return nil, fmt.Errorf("failed to copy keyset: %w", err)
	}
	return clone, nil
}

func ReadKeyset(r io.Reader) (*keyset.Handle, error) {
	h, err := insecurecleartextkeyset.Read(keyset.NewJSONReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to read keyset: %w", err)
	}
	return h, nil
}

func WriteKeyset(h *keyset.Handle, w io.Writer) error {
	if err := insecurecleartextkeyset.Write(h, keyset.NewJSONWriter(w)); err != nil {
		return fmt.Errorf("failed to write keyset: %w", err)
	}
	return nil
}

// EncodeKeyset returns the JSON keyset as base64, suitable for an env var.
func EncodeKeyset(h *keyset.Handle) (string, error) {
	var buf bytes.Buffer
	if err := WriteKeyset(h, &buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func DecodeKeyset(encoded string) (*keyset.Handle, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("keyset is not valid base64: %w", err)
	}
	return ReadKeyset(bytes.NewReader(data))
}

func LoadKeysetFile(path string) (*keyset.Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyset file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadKeyset(f)
}

// Load builds an encrypter from a keyset file or a base64 keyset, preferring
// the file. It returns ErrNoKeyset if neither is set.
func Load(keysetFile, encodedKeyset string) (*TinkEncrypter, error) {
	var (
		h   *keyset.Handle
		err error
	)
	switch {
	case keysetFile != "":
		h, err = LoadKeysetFile(keysetFile)
	case encodedKeyset != "":
		h, err = DecodeKeyset(encodedKeyset)
	default:
		return nil, ErrNoKeyset
	}
	if err != nil {
		return nil, err
	}
	return NewTinkEncrypter(h)
}
