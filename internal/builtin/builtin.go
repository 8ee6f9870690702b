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

// Package builtin declares the settings every settingsd deployment has.
// Deployments add their own on top of these with a definitions file.
package builtin

import (
	"github.com/cardinalhq/settingsd/internal/settings"
)

type SiteName struct{}

func (SiteName) Definition() settings.Definition {
	return settings.Definition{
		Key:     "site.name",
		Type:    settings.TypeGlobal,
		Default: "settingsd",
		Rules:   "required,min=1,max=100",
		Group:   "site",
		Field:   settings.Field{Label: "Site name", Order: 1},
	}
}

type SiteTimezone struct{}

func (SiteTimezone) Definition() settings.Definition {
	return settings.Definition{
		Key:         "site.timezone",
		Type:        settings.TypeGlobal,
		Default:     "UTC",
		Rules:       "required,timezone",
		Group:       "site",
		Description: "IANA time zone used when a user has not picked one.",
		Field:       settings.Field{Label: "Time zone", Placeholder: "Europe/Berlin", Order: 2},
	}
}

type SMTPHost struct{}

func (SMTPHost) Definition() settings.Definition {
	return settings.Definition{
		Key:     "mail.smtp_host",
		Type:    settings.TypeGlobal,
		Default: "",
		Rules:   "omitempty,hostname_port",
		Group:   "mail",
		Field:   settings.Field{Label: "SMTP server", Placeholder: "smtp.example.com:587", Order: 1},
	}
}

type SMTPUsername struct{}

func (SMTPUsername) Definition() settings.Definition {
	return settings.Definition{
		Key:     "mail.smtp_username",
		Type:    settings.TypeGlobal,
		Default: "",
		Rules:   "max=255",
		Group:   "mail",
		Field:   settings.Field{Label: "SMTP username", Order: 2},
	}
}

type SMTPPassword struct{}

func (SMTPPassword) Definition() settings.Definition {
	return settings.Definition{
		Key:        "mail.smtp_password",
		Type:       settings.TypeGlobal,
		Default:    "",
		Encrypted:  true,
		Group:      "mail",
		Field:      settings.Field{Label: "SMTP password", Order: 3},
		ReadRoles:  []string{settings.RoleAdmin},
		WriteRoles: []string{settings.RoleAdmin},
	}
}

type MailFrom struct{}

func (MailFrom) Definition() settings.Definition {
	return settings.Definition{
		Key:     "mail.from_address",
		Type:    settings.TypeGlobal,
		Default: "noreply@example.com",
		Rules:   "required,email",
		Group:   "mail",
		Field:   settings.Field{Type: settings.FieldEmail, Label: "From address", Order: 4},
	}
}

type UserLocale struct{}

func (UserLocale) Definition() settings.Definition {
	return settings.Definition{
		Key:     "user.locale",
		Type:    settings.TypeUser,
		Default: "en-US",
		Rules:   "required,bcp47_language_tag",
		Group:   "preferences",
		Field:   settings.Field{Label: "Language", Order: 1},
	}
}

type UserTheme struct{}

func (UserTheme) Definition() settings.Definition {
	return settings.Definition{
		Key:     "user.theme",
		Type:    settings.TypeUser,
		Default: "system",
		Group:   "preferences",
		Field: settings.Field{
			Type:  settings.FieldSelect,
			Label: "Theme",
			Order: 2,
			Options: []settings.Option{
				{Value: "system", Label: "Follow system"},
				{Value: "light", Label: "Light"},
				{Value: "dark", Label: "Dark"},
			},
		},
	}
}

type UserTimezone struct{}

func (UserTimezone) Definition() settings.Definition {
	return settings.Definition{
		Key:     "user.timezone",
		Type:    settings.TypeUser,
		Default: "",
		Rules:   "omitempty,timezone",
		Group:   "preferences",
		Field:   settings.Field{Label: "Time zone", Hint: "Empty uses the site time zone.", Order: 3},
	}
}

type TenantDisplayName struct{}

func (TenantDisplayName) Definition() settings.Definition {
	return settings.Definition{
		Key:     "tenant.display_name",
		Type:    settings.TypeTenant,
		Default: "",
		Rules:   "max=100",
		Group:   "tenant",
		Field:   settings.Field{Label: "Display name", Order: 1},
	}
}

type TenantMaxUsers struct{}

func (TenantMaxUsers) Definition() settings.Definition {
	return settings.Definition{
		Key:         "tenant.max_users",
		Type:        settings.TypeTenant,
		Default:     25,
		Rules:       "required,min=1",
		Expressions: []string{"value == double(int(value))"},
		Group:       "tenant",
		Description: "Maximum number of users the tenant may invite.",
		Field:       settings.Field{Label: "User quota", Order: 2},
		WriteRoles:  []string{settings.RoleAdmin},
	}
}

type TenantStorageQuotaGB struct{}

func (TenantStorageQuotaGB) Definition() settings.Definition {
	return settings.Definition{
		Key:         "tenant.storage_quota_gb",
		Type:        settings.TypeTenant,
		Default:     10,
		Rules:       "required,min=0",
		Expressions: []string{"value <= 10000.0"},
		Group:       "tenant",
		Field:       settings.Field{Label: "Storage quota (GB)", Order: 3},
		WriteRoles:  []string{settings.RoleAdmin},
	}
}

// All returns every built-in setting.
func All() []settings.Definer {
	return []settings.Definer{
		SiteName{},
		SiteTimezone{},
		SMTPHost{},
		SMTPUsername{},
		SMTPPassword{},
		MailFrom{},
		UserLocale{},
		UserTheme{},
		UserTimezone{},
		TenantDisplayName{},
		TenantMaxUsers{},
		TenantStorageQuotaGB{},
	}
}

// Register adds every built-in setting to reg.
func Register(reg *settings.Registry) error {
	return reg.RegisterDefiner(All()...)
}
