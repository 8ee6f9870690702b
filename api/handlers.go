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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/cardinalhq/settingsd/internal/settings"
)

type listResponse struct {
	Scope  settings.Scope   `json:"scope"`
	Values []settings.Value `json:"values"`
}

type setRequest struct {
	Value json.RawMessage `json:"value"`
}

type setManyRequest struct {
	Values map[string]json.RawMessage `json:"values"`
}

type formResponse struct {
	Scope  settings.Scope       `json:"scope"`
	Groups []settings.FormGroup `json:"groups"`
}

type definitionsResponse struct {
	Definitions []*settings.Definition `json:"definitions"`
}

func principalOf(r *http.Request) *settings.Principal {
	p, _ := settings.PrincipalFromContext(r.Context())
	return p
}

// definitionFor looks up the {key} path value.
func (s *Server) definitionFor(r *http.Request) (*settings.Definition, error) {
	key := r.PathValue("key")
	def, ok := s.mgr.Registry().Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", settings.ErrUnknownSetting, key)
	}
	return def, nil
}

func decodeBody(r *http.Request, w http.ResponseWriter, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return invalidJSON(err)
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromRequest(r, principalOf(r), settings.TypeGlobal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	values, err := s.mgr.All(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Scope: scope, Values: values})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	def, err := s.definitionFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	scope, err := scopeFromRequest(r, principalOf(r), def.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.mgr.Resolve(r.Context(), def.Key, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	def, err := s.definitionFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	scope, err := scopeFromRequest(r, principalOf(r), def.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req setRequest
	if err := decodeBody(r, w, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Value == nil {
		writeError(w, r, badRequest(`request body needs a "value" field`))
		return
	}
	if err := s.mgr.Set(r.Context(), def.Key, scope, req.Value); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.mgr.Resolve(r.Context(), def.Key, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	def, err := s.definitionFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	scope, err := scopeFromRequest(r, principalOf(r), def.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.mgr.Reset(r.Context(), def.Key, scope); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetMany writes several values of one scope. Without a type parameter
// the type of the named settings is used; they must all agree.
func (s *Server) handleSetMany(w http.ResponseWriter, r *http.Request) {
	var req setManyRequest
	if err := decodeBody(r, w, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Values) == 0 {
		writeError(w, r, badRequest(`request body needs a non-empty "values" object`))
		return
	}

	keys := make([]string, 0, len(req.Values))
	for k := range req.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var typ settings.Type
	for _, k := range keys {
		def, ok := s.mgr.Registry().Lookup(k)
		if !ok {
			writeError(w, r, fmt.Errorf("%w: %s", settings.ErrUnknownSetting, k))
			return
		}
		if typ == "" {
			typ = def.Type
		} else if def.Type != typ && r.URL.Query().Get("type") == "" {
			writeError(w, r, badRequest("values mix setting types; pass the type parameter"))
			return
		}
	}

	scope, err := scopeFromRequest(r, principalOf(r), typ)
	if err != nil {
		writeError(w, r, err)
		return
	}
	values := make(map[string]any, len(req.Values))
	for k, v := range req.Values {
		values[k] = v
	}
	if err := s.mgr.SetMany(r.Context(), scope, values); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromRequest(r, principalOf(r), settings.TypeGlobal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	groups, err := s.mgr.Form(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, formResponse{Scope: scope, Groups: groups})
}

func (s *Server) handleDefinitions(w http.ResponseWriter, r *http.Request) {
	reg := s.mgr.Registry()
	defs := reg.All()
	if t := r.URL.Query().Get("type"); t != "" {
		typ, err := settings.ParseType(t)
		if err != nil {
			writeError(w, r, badRequest(err.Error()))
			return
		}
		defs = reg.ByType(typ)
	}
	writeJSON(w, http.StatusOK, definitionsResponse{Definitions: defs})
}
