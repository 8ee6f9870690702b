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
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cardinalhq/settingsd/internal/logctx"
	"github.com/cardinalhq/settingsd/internal/settings"
)

type APIErrorCode string

const (
	InvalidJSON         APIErrorCode = "INVALID_JSON"
	ErrBadRequest       APIErrorCode = "BAD_REQUEST"
	ErrUnauthorized     APIErrorCode = "UNAUTHORIZED"
	ErrForbidden        APIErrorCode = "FORBIDDEN"
	ErrUnknownSetting   APIErrorCode = "UNKNOWN_SETTING"
	ErrScopeMismatch    APIErrorCode = "SCOPE_MISMATCH"
	ErrValidationFailed APIErrorCode = "VALIDATION_FAILED"
	ErrUnavailable      APIErrorCode = "UNAVAILABLE"
	ErrClientClosed     APIErrorCode = "CLIENT_CLOSED"
	ErrInternalError    APIErrorCode = "INTERNAL_ERROR"
)

// APIError is the body of every non-2xx response. Errors is set only for
// validation failures and maps setting keys to messages.
type APIError struct {
	Status  int                 `json:"status"`
	Code    APIErrorCode        `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// requestError is a malformed request detected by a handler.
type requestError struct {
	code APIErrorCode
	msg  string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{code: ErrBadRequest, msg: msg}
}

func invalidJSON(err error) error {
	return &requestError{code: InvalidJSON, msg: "invalid JSON: " + err.Error()}
}

// Non-standard but used by many proxies for client disconnects.
const statusClientClosedRequest = 499

func writeAPIError(w http.ResponseWriter, status int, code APIErrorCode, msg string) {
	writeJSON(w, status, APIError{Status: status, Code: code, Message: msg})
}

// writeError maps err to a status code and writes it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr *requestError
		verr   *settings.ValidationError
	)
	switch {
	case errors.As(err, &reqErr):
		writeAPIError(w, http.StatusBadRequest, reqErr.code, reqErr.msg)
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    ErrValidationFailed,
			Message: verr.Error(),
			Errors:  verr.Fields(),
		})
	case errors.Is(err, settings.ErrUnknownSetting):
		writeAPIError(w, http.StatusNotFound, ErrUnknownSetting, err.Error())
	case errors.Is(err, settings.ErrScopeMismatch):
		writeAPIError(w, http.StatusBadRequest, ErrScopeMismatch, err.Error())
	case errors.Is(err, settings.ErrPermissionDenied):
		writeAPIError(w, http.StatusForbidden, ErrForbidden, err.Error())
	case errors.Is(err, context.Canceled):
		writeAPIError(w, statusClientClosedRequest, ErrClientClosed, "client closed request")
	default:
		logctx.FromContext(r.Context()).Error("Settings request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		writeAPIError(w, http.StatusInternalServerError, ErrInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", slog.Any("error", err))
	}
}
