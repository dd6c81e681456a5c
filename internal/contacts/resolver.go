package contacts

import (
	"context"
	"strings"

	"github.com/campusbot/faq-engine/internal/config"
	"github.com/campusbot/faq-engine/internal/observability"
	"github.com/campusbot/faq-engine/internal/storage"
)

// Contact is a single human contact attached to a chat response.
type Contact struct {
	Organization string `json:"organization"`
	Officer      string `json:"officer,omitempty"`
	Category     string `json:"category,omitempty"`
	Contact      string `json:"contact,omitempty"`
	PhoneRaw     string `json:"officerPhoneRaw,omitempty"`
	Phone        string `json:"officerPhone,omitempty"`
}

// Directory is the read-only contact store the resolver consults.
type Directory interface {
	ActiveOfficerContacts(ctx context.Context, limit int) ([]storage.OfficerContact, error)
	Organizations(ctx context.Context) ([]string, error)
	ContactsForEntries(ctx context.Context, entryIDs []int64) ([]storage.CategoryContact, error)
}

// Resolver turns directory rows into display-ready contacts. Lookup
// failures degrade to an empty list; a missing contact never fails the
// chat response.
type Resolver struct {
	dir    Directory
	cfg    config.ContactsConfig
	logger *observability.Logger
}

// NewResolver creates a Resolver.
func NewResolver(dir Directory, cfg config.ContactsConfig, logger *observability.Logger) *Resolver {
	return &Resolver{dir: dir, cfg: cfg, logger: logger.WithComponent("contacts")}
}

// DefaultContacts returns the officer contact list used when no answer is
// found. When a preferred officer is configured and present, the list is
// narrowed to that single contact. Without any reachable officer the
// organization directory is returned instead.
func (r *Resolver) DefaultContacts(ctx context.Context) []Contact {
	rows, err := r.dir.ActiveOfficerContacts(ctx, r.cfg.MaxContacts)
	if err != nil {
		r.logger.Warn().Err(err).Msg("officer contact lookup failed")
		return r.Organizations(ctx)
	}
	if len(rows) == 0 {
		return r.Organizations(ctx)
	}

	out := make([]Contact, 0, len(rows))
	for _, row := range rows {
		out = append(out, Contact{
			Organization: row.Organization,
			Officer:      row.Officer,
			PhoneRaw:     row.Phone,
			Phone:        FormatThaiPhone(row.Phone),
		})
	}

	if preferred, ok := r.preferred(out); ok {
		return []Contact{preferred}
	}
	return out
}

// preferred picks the configured officer by name substring first, then by
// phone prefix.
func (r *Resolver) preferred(list []Contact) (Contact, bool) {
	if name := strings.TrimSpace(r.cfg.PreferredOfficerName); name != "" {
		for _, c := range list {
			if strings.Contains(c.Officer, name) {
				return c, true
			}
		}
	}
	if prefix := strings.TrimSpace(r.cfg.PreferredPhonePrefix); prefix != "" {
		for _, c := range list {
			if strings.HasPrefix(DigitsOnly(c.PhoneRaw), prefix) {
				return c, true
			}
		}
	}
	return Contact{}, false
}

// Organizations returns the organization name list used for the
// cannot-answer fallback.
func (r *Resolver) Organizations(ctx context.Context) []Contact {
	names, err := r.dir.Organizations(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("organization lookup failed")
		return []Contact{}
	}

	out := make([]Contact, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, Contact{Organization: name})
		}
	}
	return out
}

// ForEntries returns contacts tied to the categories and officers of the
// given FAQ entries, attached when multiple answers survive filtering.
func (r *Resolver) ForEntries(ctx context.Context, entryIDs []int64) []Contact {
	rows, err := r.dir.ContactsForEntries(ctx, entryIDs)
	if err != nil {
		r.logger.Warn().Err(err).Msg("entry contact lookup failed")
		return []Contact{}
	}

	out := make([]Contact, 0, len(rows))
	for _, row := range rows {
		out = append(out, Contact{
			Organization: row.Organization,
			Category:     row.Category,
			Contact:      row.Contact,
		})
	}
	return out
}
