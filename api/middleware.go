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

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cardinalhq/settingsd/internal/apikey"
	"github.com/cardinalhq/settingsd/internal/logctx"
	"github.com/cardinalhq/settingsd/internal/settings"
)

// extractAPIKey reads the x-settings-api-key header, falling back to a
// bearer token.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// apiKeyMiddleware authenticates the request and stores the principal in its context.
func (s *Server) apiKeyMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeAPIError(w, http.StatusUnauthorized, ErrUnauthorized, "missing "+APIKeyHeader+" header")
			return
		}

		principal, err := s.keys.Authenticate(r.Context(), key)
		if errors.Is(err, apikey.ErrInvalidAPIKey) {
			writeAPIError(w, http.StatusUnauthorized, ErrUnauthorized, "invalid API key")
			return
		}
		if err != nil {
			slog.Error("API key validation failed", slog.Any("error", err))
			writeAPIError(w, http.StatusServiceUnavailable, ErrUnavailable, "unable to validate API key")
			return
		}

		ctx := settings.WithPrincipal(r.Context(), principal)
		ctx = logctx.With(ctx,
			slog.String("principal", principal.ID),
			slog.String("method", r.Method),
			slog.String("route", r.Pattern))
		next(w, r.WithContext(ctx))
	}
}
