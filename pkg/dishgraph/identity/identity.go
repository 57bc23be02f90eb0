// Package identity assigns graph identities to dishes and ingredients.
package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/record"
)

// Kind selects an identity strategy.
type Kind string

const (
	// KindGenerated gives every record a fresh random UUID. Regenerating
	// output produces new identities.
	KindGenerated Kind = "generated"
	// KindNatural uses an existing key column as identity and constraint,
	// so regeneration is idempotent.
	KindNatural Kind = "natural"
)

// ParseKind parses a config value.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindGenerated, "uuid", "":
		return KindGenerated, nil
	case KindNatural, "natural-key":
		return KindNatural, nil
	}
	return "", fmt.Errorf("identity strategy %q: %w", s, internalerr.ErrInvalidConfig)
}

// Strategy assigns an identity given a record's natural key.
type Strategy interface {
	Kind() Kind
	Assign(naturalKey string) (record.Identity, error)
}

// UUIDField is the identity column written by the generated strategy.
const UUIDField = "UUID"

// ConstraintField returns the constraint column for an identity column.
func ConstraintField(field string) string { return "constraint_" + field }

// Generated produces a random 128-bit identifier per call.
type Generated struct {
	// NewID is overridable in tests; uuid.NewString by default.
	NewID func() string
}

func (Generated) Kind() Kind { return KindGenerated }

// Assign ignores the natural key: two identical records get distinct ids.
func (g Generated) Assign(string) (record.Identity, error) {
	next := g.NewID
	if next == nil {
		next = uuid.NewString
	}
	return record.Identity{
		Value:           next(),
		Field:           UUIDField,
		ConstraintField: ConstraintField(UUIDField),
	}, nil
}

// Natural uses the natural key itself, stored under Field.
type Natural struct {
	Field string
}

func (Natural) Kind() Kind { return KindNatural }

func (n Natural) Assign(key string) (record.Identity, error) {
	if strings.TrimSpace(key) == "" {
		return record.Identity{}, fmt.Errorf("empty %s natural key: %w", n.Field, internalerr.ErrInvalidInput)
	}
	return record.Identity{
		Value:           key,
		Field:           n.Field,
		ConstraintField: ConstraintField(n.Field),
	}, nil
}

// New returns the strategy for kind. field is the natural key column
// and is ignored by the generated strategy.
func New(kind Kind, field string) Strategy {
	if kind == KindNatural {
		return Natural{Field: field}
	}
	return Generated{}
}
