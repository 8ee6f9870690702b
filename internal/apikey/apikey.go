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

// Package apikey authenticates API keys and maps them to settings principals.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"

	"github.com/cardinalhq/settingsd/internal/settings"
)

var ErrInvalidAPIKey = errors.New("invalid API key")

// KeyPrefix starts every generated key.
const KeyPrefix = "sk_"

type Provider interface {
	// Authenticate returns ErrInvalidAPIKey for unknown keys.
	Authenticate(ctx context.Context, apiKey string) (*settings.Principal, error)
}

// HashAPIKey is the form keys are stored in.
func HashAPIKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return fmt.Sprintf("%x", h)
}

var keyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Generate returns a new random key.
func Generate() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return KeyPrefix + strings.ToLower(keyEncoding.EncodeToString(buf)), nil
}

type chainProvider struct {
	providers []Provider
}

// NewChain tries each provider in order and returns the first match.
func NewChain(providers ...Provider) Provider {
	return &chainProvider{providers: providers}
}

func (c *chainProvider) Authenticate(ctx context.Context, apiKey string) (*settings.Principal, error) {
	var errs []error
	for _, p := range c.providers {
		principal, err := p.Authenticate(ctx, apiKey)
		if err == nil {
			return principal, nil
		}
		if !errors.Is(err, ErrInvalidAPIKey) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, ErrInvalidAPIKey
}
