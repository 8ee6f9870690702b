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
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsd/internal/apikey"
	"github.com/cardinalhq/settingsd/settingsdb"
)

func init() {
	rootCmd.AddCommand(getAPIKeysCmd())
}

// apiKeyStore is the part of settingsdb the apikeys commands use.
type apiKeyStore interface {
	apikey.Creator
	ListAPIKeys(ctx context.Context) ([]settingsdb.ApiKey, error)
	DeleteAPIKey(ctx context.Context, id uuid.UUID) error
}

func getAPIKeysCmd() *cobra.Command {
	apiKeysCmd := &cobra.Command{
		Use:   "apikeys",
		Short: "Manage API keys stored in the database",
	}

	var (
		name        string
		description string
		tenant      string
		user        string
		roles       []string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := parseOptionalID(tenant, "tenant")
			if err != nil {
				return err
			}
			userID, err := parseOptionalID(user, "user")
			if err != nil {
				return err
			}
			params := apikey.CreateParams{
				Name:        name,
				Description: description,
				TenantID:    tenantID,
				UserID:      userID,
				Roles:       roles,
			}
			return withAPIKeyStore(cmd.Context(), func(ctx context.Context, store apiKeyStore) error {
				return runCreateAPIKey(ctx, cmd.OutOrStdout(), store, params)
			})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "API key name (required)")
	createCmd.Flags().StringVar(&description, "description", "", "API key description")
	createCmd.Flags().StringVar(&tenant, "tenant", "", "Tenant the key acts for")
	createCmd.Flags().StringVar(&user, "user", "", "User the key acts as")
	createCmd.Flags().StringSliceVar(&roles, "role", nil, "Role granted to the key (admin, tenant-admin); repeatable")
	_ = createCmd.MarkFlagRequired("name")
	apiKeysCmd.AddCommand(createCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAPIKeyStore(cmd.Context(), func(ctx context.Context, store apiKeyStore) error {
				return runListAPIKeys(ctx, cmd.OutOrStdout(), store)
			})
		},
	}
	apiKeysCmd.AddCommand(listCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <api-key-id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid API key ID %q: %w", args[0], err)
			}
			return withAPIKeyStore(cmd.Context(), func(ctx context.Context, store apiKeyStore) error {
				return runDeleteAPIKey(ctx, cmd.OutOrStdout(), store, id)
			})
		},
	}
	apiKeysCmd.AddCommand(deleteCmd)

	return apiKeysCmd
}

func withAPIKeyStore(ctx context.Context, fn func(ctx context.Context, store apiKeyStore) error) error {
	store, err := settingsdb.SettingsDBStoreForAdmin(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to settings database: %w", err)
	}
	defer store.Close()
	return fn(ctx, store)
}

func runCreateAPIKey(ctx context.Context, w io.Writer, store apiKeyStore, params apikey.CreateParams) error {
	key, row, err := apikey.Create(ctx, store, params)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Created API key:\n")
	fmt.Fprintf(w, "  ID: %s\n", row.ID)
	fmt.Fprintf(w, "  Name: %s\n", row.Name)
	if row.Description != nil && *row.Description != "" {
		fmt.Fprintf(w, "  Description: %s\n", *row.Description)
	}
	if len(row.Roles) > 0 {
		fmt.Fprintf(w, "  Roles: %s\n", strings.Join(row.Roles, ","))
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "API Key (save this - it won't be shown again):\n")
	fmt.Fprintf(w, "  %s\n", key)
	return nil
}

func runListAPIKeys(ctx context.Context, w io.Writer, store apiKeyStore) error {
	keys, err := store.ListAPIKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list API keys: %w", err)
	}

	if len(keys) == 0 {
		fmt.Fprintln(w, "No API keys found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTENANT\tUSER\tROLES\tCREATED")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			k.ID, k.Name, idOrDash(k.TenantID), idOrDash(k.UserID), strings.Join(k.Roles, ","),
			k.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	return tw.Flush()
}

func runDeleteAPIKey(ctx context.Context, w io.Writer, store apiKeyStore, id uuid.UUID) error {
	if err := store.DeleteAPIKey(ctx, id); err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}
	fmt.Fprintf(w, "Deleted API key %s\n", id)
	return nil
}

func idOrDash(id uuid.UUID) string {
	if id == uuid.Nil {
		return "-"
	}
	return id.String()
}
