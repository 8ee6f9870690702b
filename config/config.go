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

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cardinalhq/settingsd/internal/fly"
	"github.com/cardinalhq/settingsd/internal/settingscache"
)

type Config struct {
	HTTP        HTTPConfig            `mapstructure:"http"`
	Cache       settingscache.Options `mapstructure:"cache"`
	Encryption  EncryptionConfig      `mapstructure:"encryption"`
	APIKeys     APIKeysConfig         `mapstructure:"apikeys"`
	Events      fly.Config            `mapstructure:"events"`
	Definitions DefinitionsConfig     `mapstructure:"definitions"`
	Debug       DebugConfig           `mapstructure:"debug"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// EncryptionConfig names a Tink keyset. KeysetFile wins when both are set;
// Keyset holds a base64 encoded cleartext keyset.
type EncryptionConfig struct {
	KeysetFile string `mapstructure:"keyset_file"`
	Keyset     string `mapstructure:"keyset"`
}

// Enabled reports whether a keyset is configured.
func (e EncryptionConfig) Enabled() bool {
	return e.KeysetFile != "" || e.Keyset != ""
}

type APIKeysConfig struct {
	// File is a YAML key file, or "env:VAR" to read the YAML from a variable.
	File     string        `mapstructure:"file"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// Database also checks keys stored in the api_keys table.
	Database bool `mapstructure:"database"`
}

type DefinitionsConfig struct {
	File string `mapstructure:"file"`
}

// DebugConfig enables the pprof listener when PprofAddr is set.
type DebugConfig struct {
	PprofAddr string `mapstructure:"pprof_addr"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Cache: settingscache.Options{
			Backend:   settingscache.BackendMemory,
			TTL:       settingscache.DefaultTTL,
			KeyPrefix: "settings",
		},
		APIKeys: APIKeysConfig{
			File:     "/app/config/apikeys.yaml",
			CacheTTL: 5 * time.Minute,
			Database: true,
		},
		Events: *fly.DefaultConfig(),
	}
}

// Load reads config.yaml from the working directory if present, then applies
// SETTINGSD_ environment overrides such as SETTINGSD_CACHE_BACKEND.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("SETTINGSD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if b := v.GetString("events.brokers"); b != "" {
		cfg.Events.Brokers = strings.Split(b, ",")
	}
	return cfg, nil
}

func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
