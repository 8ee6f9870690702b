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

package apikey

import (
	"bytes"
	"context"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cardinalhq/settingsd/internal/settings"
)

type FileAPIKey struct {
	Name        string   `yaml:"name"`
	Key         string   `yaml:"key"`
	Description string   `yaml:"description,omitempty"`
	UserID      string   `yaml:"user_id,omitempty"`
	TenantID    string   `yaml:"tenant_id,omitempty"`
	Roles       []string `yaml:"roles,omitempty"`
}

type FileConfig struct {
	APIKeys []FileAPIKey `yaml:"apikeys,omitempty"`
}

type fileKey struct {
	key       []byte
	principal settings.Principal
}

type fileProvider struct {
	keys []fileKey
}

var _ Provider = (*fileProvider)(nil)

// NewFileProvider reads keys from a YAML file, or from an environment variable
// when filename is "env:VAR". A missing file yields a provider with no keys.
func NewFileProvider(filename string) (Provider, error) {
	if envVar, ok := strings.CutPrefix(filename, "env:"); ok {
		contents := os.Getenv(envVar)
		if contents == "" {
			return nil, fmt.Errorf("environment variable %s is not set", envVar)
		}
		return newFileProviderFromContents(filename, []byte(contents))
	}

	contents, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileProvider{}, nil
		}
		return nil, fmt.Errorf("failed to read API keys from file %s: %w", filename, err)
	}
	return newFileProviderFromContents(filename, contents)
}

func newFileProviderFromContents(filename string, contents []byte) (Provider, error) {
	var config FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(false)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal API keys from %s: %w", filename, err)
	}

	p := &fileProvider{}
	for i, k := range config.APIKeys {
		if k.Key == "" {
			return nil, fmt.Errorf("%s: API key %d (%s) has no key", filename, i, k.Name)
		}
		userID, err := parseOptionalUUID(k.UserID)
		if err != nil {
			return nil, fmt.Errorf("%s: API key %s: user_id: %w", filename, k.Name, err)
		}
		tenantID, err := parseOptionalUUID(k.TenantID)
		if err != nil {
			return nil, fmt.Errorf("%s: API key %s: tenant_id: %w", filename, k.Name, err)
		}
		p.keys = append(p.keys, fileKey{
			key: []byte(k.Key),
			principal: settings.Principal{
				ID:       "file:" + k.Name,
				Name:     k.Name,
				UserID:   userID,
				TenantID: tenantID,
				Roles:    k.Roles,
			},
		})
	}
	return p, nil
}

func parseOptionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

func (p *fileProvider) Authenticate(_ context.Context, apiKey string) (*settings.Principal, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}
	for _, k := range p.keys {
		if subtle.ConstantTimeCompare(k.key, []byte(apiKey)) == 1 {
			principal := k.principal
			return &principal, nil
		}
	}
	return nil, ErrInvalidAPIKey
}
