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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsd/config"
	"github.com/cardinalhq/settingsd/internal/settings"
	"github.com/cardinalhq/settingsd/settingsdb"
)

// cliPrincipal is the identity command line changes are made under.
var cliPrincipal = &settings.Principal{
	ID:    "cli",
	Name:  "settingsd-cli",
	Roles: []string{settings.RoleAdmin},
}

func init() {
	rootCmd.AddCommand(getSettingsCmd())
}

func getSettingsCmd() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change settings directly in the database",
	}

	var getFlags scopeFlags
	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(ctx context.Context, mgr *settings.Manager) error {
				return runGet(ctx, cmd.OutOrStdout(), mgr, args[0], getFlags)
			})
		},
	}
	getFlags.register(getCmd)
	settingsCmd.AddCommand(getCmd)

	var setFlags scopeFlags
	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value for a setting",
		Long: `Store a value for a setting. The value is parsed as JSON when it is valid JSON
and used as a plain string otherwise, so both 42 and '"42"' work as expected.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(ctx context.Context, mgr *settings.Manager) error {
				return runSet(ctx, cmd.OutOrStdout(), mgr, args[0], args[1], setFlags)
			})
		},
	}
	setFlags.register(setCmd)
	settingsCmd.AddCommand(setCmd)

	var resetFlags scopeFlags
	resetCmd := &cobra.Command{
		Use:   "reset <key>",
		Short: "Remove a stored value so the setting falls back again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd.Context(), func(ctx context.Context, mgr *settings.Manager) error {
				return runReset(ctx, cmd.OutOrStdout(), mgr, args[0], resetFlags)
			})
		},
	}
	resetFlags.register(resetCmd)
	settingsCmd.AddCommand(resetCmd)

	var listFlags scopeFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the effective values of every setting of a type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd.Context(), func(ctx context.Context, mgr *settings.Manager) error {
				return runList(ctx, cmd.OutOrStdout(), mgr, listFlags)
			})
		},
	}
	listFlags.register(listCmd)
	settingsCmd.AddCommand(listCmd)

	var defType string
	definitionsCmd := &cobra.Command{
		Use:   "definitions",
		Short: "List registered setting definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			reg, err := newRegistry(cfg)
			if err != nil {
				return err
			}
			return printDefinitions(cmd.OutOrStdout(), reg, defType)
		},
	}
	definitionsCmd.Flags().StringVar(&defType, "type", "", "Only show definitions of this type (global, tenant, user)")
	settingsCmd.AddCommand(definitionsCmd)

	return settingsCmd
}

// withManager opens the database for an admin command and runs fn as cliPrincipal.
func withManager(ctx context.Context, fn func(ctx context.Context, mgr *settings.Manager) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := newApp(ctx, cfg, appOptions{
		open: func(ctx context.Context) (*settingsdb.Store, error) {
			return settingsdb.SettingsDBStoreForAdmin(ctx)
		},
	})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(settings.WithPrincipal(ctx, cliPrincipal), a.manager)
}

// scopeFlags selects a scope the way the HTTP API's query parameters do,
// except that there is no caller to take tenant and user IDs from.
type scopeFlags struct {
	typ       string
	tenant    string
	user      string
	isDefault bool
}

func (f *scopeFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.typ, "type", "", "Setting type (global, tenant, user); defaults to the setting's own type")
	c.Flags().StringVar(&f.tenant, "tenant", "", "Tenant ID")
	c.Flags().StringVar(&f.user, "user", "", "User ID")
	c.Flags().BoolVar(&f.isDefault, "default", false, "Address the default row instead of a tenant or user")
}

// scope builds the addressed scope. fallback is used when --type is unset.
func (f scopeFlags) scope(fallback settings.Type) (settings.Scope, error) {
	typ := fallback
	if f.typ != "" {
		t, err := settings.ParseType(f.typ)
		if err != nil {
			return settings.Scope{}, err
		}
		typ = t
	}

	tenantID, err := parseOptionalID(f.tenant, "tenant")
	if err != nil {
		return settings.Scope{}, err
	}
	userID, err := parseOptionalID(f.user, "user")
	if err != nil {
		return settings.Scope{}, err
	}

	switch typ {
	case settings.TypeGlobal:
		if tenantID != uuid.Nil || userID != uuid.Nil || f.isDefault {
			return settings.Scope{}, errors.New("global settings take no --tenant, --user or --default")
		}
		return settings.GlobalScope(), nil
	case settings.TypeTenant:
		if userID != uuid.Nil {
			return settings.Scope{}, errors.New("tenant settings take no --user")
		}
		if f.isDefault {
			if tenantID != uuid.Nil {
				return settings.Scope{}, errors.New("--default takes no --tenant for tenant settings")
			}
			return settings.TenantScope(uuid.Nil), nil
		}
		if tenantID == uuid.Nil {
			return settings.Scope{}, errors.New("--tenant is required")
		}
		return settings.TenantScope(tenantID), nil
	case settings.TypeUser:
		if f.isDefault {
			if userID != uuid.Nil {
				return settings.Scope{}, errors.New("--default takes no --user")
			}
			return settings.UserScope(tenantID, uuid.Nil), nil
		}
		if userID == uuid.Nil {
			return settings.Scope{}, errors.New("--user is required")
		}
		return settings.UserScope(tenantID, userID), nil
	default:
		return settings.Scope{}, fmt.Errorf("invalid setting type %q", typ)
	}
}

func parseOptionalID(s, name string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s %q: %w", name, s, err)
	}
	return id, nil
}

// scopeForKey resolves flags against the type of the registered setting.
func scopeForKey(mgr *settings.Manager, key string, f scopeFlags) (settings.Scope, error) {
	def, ok := mgr.Registry().Lookup(key)
	if !ok {
		return settings.Scope{}, fmt.Errorf("%w: %s", settings.ErrUnknownSetting, key)
	}
	return f.scope(def.Type)
}

// parseValue reads s as JSON when it is valid JSON and as a string otherwise.
func parseValue(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return s
}

func formatValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func runGet(ctx context.Context, w io.Writer, mgr *settings.Manager, key string, f scopeFlags) error {
	scope, err := scopeForKey(mgr, key, f)
	if err != nil {
		return err
	}
	v, err := mgr.Resolve(ctx, key, scope)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, formatValue(v.Value))
	return err
}

func runSet(ctx context.Context, w io.Writer, mgr *settings.Manager, key, value string, f scopeFlags) error {
	scope, err := scopeForKey(mgr, key, f)
	if err != nil {
		return err
	}
	if err := mgr.Set(ctx, key, scope, parseValue(value)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Set %s for %s\n", key, scope)
	return err
}

func runReset(ctx context.Context, w io.Writer, mgr *settings.Manager, key string, f scopeFlags) error {
	scope, err := scopeForKey(mgr, key, f)
	if err != nil {
		return err
	}
	if err := mgr.Reset(ctx, key, scope); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Reset %s for %s\n", key, scope)
	return err
}

func runList(ctx context.Context, w io.Writer, mgr *settings.Manager, f scopeFlags) error {
	scope, err := f.scope(settings.TypeGlobal)
	if err != nil {
		return err
	}
	values, err := mgr.All(ctx, scope)
	if err != nil {
		return err
	}
	return printValues(w, values)
}

func printValues(w io.Writer, values []settings.Value) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSCOPE\tSOURCE\tVALUE")
	for _, v := range values {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Key, v.Scope, v.Source, formatValue(v.Value))
	}
	return tw.Flush()
}

func printDefinitions(w io.Writer, reg *settings.Registry, typ string) error {
	defs := reg.All()
	if typ != "" {
		t, err := settings.ParseType(typ)
		if err != nil {
			return err
		}
		defs = reg.ByType(t)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tFIELD\tGROUP\tENCRYPTED\tDEFAULT")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n", d.Key, d.Type, d.Field.Type, d.Group, d.Encrypted, formatValue(d.Default))
	}
	return tw.Flush()
}
