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

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/settingsd/internal/crypt"
)

func TestWriteKeysetTo_Stdout(t *testing.T) {
	h, err := crypt.GenerateKeyset()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeKeysetTo(&out, h, "", false))
	got, err := crypt.ReadKeyset(&out)
	require.NoError(t, err)
	assert.Equal(t, h.KeysetInfo().GetPrimaryKeyId(), got.KeysetInfo().GetPrimaryKeyId())

	out.Reset()
	require.NoError(t, writeKeysetTo(&out, h, "", true))
	enc, err := crypt.Load("", out.String())
	require.NoError(t, err)
	assert.Equal(t, h.KeysetInfo().GetPrimaryKeyId(), enc.PrimaryKeyID())
}

func TestKeysetCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyset.json")

	var out bytes.Buffer
	c := getKeysetCmd()
	c.SetOut(&out)
	c.SetArgs([]string{"generate", "--out", path})
	require.NoError(t, c.Execute())
	assert.Contains(t, out.String(), "Wrote keyset to")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	before, err := crypt.LoadKeysetFile(path)
	require.NoError(t, err)
	require.Len(t, before.KeysetInfo().GetKeyInfo(), 1)

	enc, err := crypt.Load(path, "")
	require.NoError(t, err)
	ciphertext, err := enc.Encrypt([]byte("secret"), []byte("mail.smtp_password"))
	require.NoError(t, err)

	out.Reset()
	c = getKeysetCmd()
	c.SetOut(&out)
	c.SetArgs([]string{"rotate", "--in", path})
	require.NoError(t, c.Execute())

	after, err := crypt.LoadKeysetFile(path)
	require.NoError(t, err)
	assert.Len(t, after.KeysetInfo().GetKeyInfo(), 2)
	assert.NotEqual(t, before.KeysetInfo().GetPrimaryKeyId(), after.KeysetInfo().GetPrimaryKeyId())

	rotated, err := crypt.Load(path, "")
	require.NoError(t, err)
	plaintext, err := rotated.Decrypt(ciphertext, []byte("mail.smtp_password"))
	require.NoError(t, err)
	assert.Equal(t, "secret", string(plaintext))
}

func TestKeysetRotate_Base64ToStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyset.json")
	h, err := crypt.GenerateKeyset()
	require.NoError(t, err)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, crypt.WriteKeyset(h, f))
	require.NoError(t, f.Close())

	var out bytes.Buffer
	c := getKeysetCmd()
	c.SetOut(&out)
	c.SetArgs([]string{"rotate", "--in", path, "--base64"})
	require.NoError(t, c.Execute())

	decoded, err := crypt.DecodeKeyset(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Len(t, decoded.KeysetInfo().GetKeyInfo(), 2)

	unchanged, err := crypt.LoadKeysetFile(path)
	require.NoError(t, err)
	assert.Len(t, unchanged.KeysetInfo().GetKeyInfo(), 1, "base64 output leaves the input file alone")
}

func TestKeysetRotate_RequiresInput(t *testing.T) {
	c := getKeysetCmd()
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	c.SetArgs([]string{"rotate"})
	assert.Error(t, c.Execute())
}
