// Package services holds the business operations behind the HTTP API.
// Every service takes its dependencies in its constructor and returns
// *apperr.Error values that the handlers map to HTTP responses.
package services

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ack is returned by update and delete operations.
type Ack struct {
	Message string `json:"message"`
	Success bool   `json:"success,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Scope restricts list queries to the tenant of one user.
// Admins get a scope with All set.
type Scope struct {
	UserID uuid.UUID
	All    bool
}

// Everyone is the unrestricted scope.
func Everyone() Scope { return Scope{All: true} }

// Tenant restricts queries to the data of userID.
func Tenant(userID uuid.UUID) Scope { return Scope{UserID: userID} }

// ParseID parses a path identifier.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperr.BadRequest("Invalid id", map[string]string{"id": "must be a UUID"})
	}
	return id, nil
}

func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return apperr.BadRequest("Validation failed", v)
}

// exists reports whether a row of model matches the condition.
func exists(tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var n int64
	if err := tx.Model(model).Where(query, args...).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// trimmed drops blank entries and surrounding whitespace from a string list.
func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Date accepts RFC 3339 timestamps as well as plain YYYY-MM-DD dates.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func timePtr(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
