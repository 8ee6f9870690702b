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
	"fmt"
	"io"
	"os"

	"github.com/google/tink/go/keyset"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsd/internal/crypt"
)

func init() {
	rootCmd.AddCommand(getKeysetCmd())
}

func getKeysetCmd() *cobra.Command {
	keysetCmd := &cobra.Command{
		Use:   "keyset",
		Short: "Create and rotate the keyset used to encrypt settings",
		Long: `Create and rotate the Tink keyset used to encrypt settings.

Keysets are written in cleartext. Store them as a secret and point
SETTINGSD_ENCRYPTION_KEYSET_FILE or SETTINGSD_ENCRYPTION_KEYSET at them.`,
	}

	var (
		genOut    string
		genBase64 bool
	)
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new keyset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := crypt.GenerateKeyset()
			if err != nil {
				return err
			}
			return writeKeysetTo(cmd.OutOrStdout(), h, genOut, genBase64)
		},
	}
	generateCmd.Flags().StringVar(&genOut, "out", "", "Write the keyset to this file instead of stdout")
	generateCmd.Flags().BoolVar(&genBase64, "base64", false, "Write the base64 form used by SETTINGSD_ENCRYPTION_KEYSET")
	keysetCmd.AddCommand(generateCmd)

	var (
		rotIn     string
		rotOut    string
		rotBase64 bool
	)
	rotateCmd := &cobra.Command{
		Use:   "rotate",
		Short: "Add a new primary key to a keyset",
		Long: `Add a new primary key to a keyset. Older keys stay in the keyset so values
encrypted with them can still be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := crypt.LoadKeysetFile(rotIn)
			if err != nil {
				return err
			}
			rotated, err := crypt.RotateKeyset(h)
			if err != nil {
				return err
			}
			out := rotOut
			if out == "" && !rotBase64 {
				out = rotIn
			}
			return writeKeysetTo(cmd.OutOrStdout(), rotated, out, rotBase64)
		},
	}
	rotateCmd.Flags().StringVar(&rotIn, "in", "", "Keyset file to rotate (required)")
	rotateCmd.Flags().StringVar(&rotOut, "out", "", "Write the rotated keyset here; defaults to overwriting --in")
	rotateCmd.Flags().BoolVar(&rotBase64, "base64", false, "Write the base64 form used by SETTINGSD_ENCRYPTION_KEYSET")
	_ = rotateCmd.MarkFlagRequired("in")
	keysetCmd.AddCommand(rotateCmd)

	return keysetCmd
}

// writeKeysetTo writes h to path, or to w when path is empty.
func writeKeysetTo(w io.Writer, h *keyset.Handle, path string, asBase64 bool) error {
	var buf bytes.Buffer
	if asBase64 {
		encoded, err := crypt.EncodeKeyset(h)
		if err != nil {
			return err
		}
		buf.WriteString(encoded)
		buf.WriteByte('\n')
	} else if err := crypt.WriteKeyset(h, &buf); err != nil {
		return err
	}

	if path == "" {
		_, err := w.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write keyset: %w", err)
	}
	fmt.Fprintf(w, "Wrote keyset to %s\n", path)
	return nil
}
