package entity

import (
	"errors"
	"strings"
)

// IdentifierKind names the field a visitor is looked up by.
type IdentifierKind string

const (
	KindEmail       IdentifierKind = "email"
	KindLinkedInURL IdentifierKind = "linkedInUrl"
)

// ErrMissingIdentifier is returned when neither an email nor a LinkedIn URL was supplied.
var ErrMissingIdentifier = errors.New("missing required field: email or linkedInUrl")

// Identifier is the lookup key shared by contact and pitch records.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// NewIdentifier picks the lookup key from the supplied values. Email wins when both are set.
func NewIdentifier(email, linkedInURL string) (Identifier, error) {
	if v := strings.TrimSpace(email); v != "" {
		return Identifier{Kind: KindEmail, Value: v}, nil
	}
	if v := strings.TrimSpace(linkedInURL); v != "" {
		return Identifier{Kind: KindLinkedInURL, Value: v}, nil
	}
	return Identifier{}, ErrMissingIdentifier
}

// Label is the human readable name of the identifier kind.
func (i Identifier) Label() string {
	if i.Kind == KindLinkedInURL {
		return "LinkedIn URL"
	}
	return "email"
}

func (i Identifier) String() string {
	return string(i.Kind) + "=" + i.Value
}

// apply copies the identifier into the matching record field.
func (i Identifier) apply(email, linkedInURL *string) {
	switch i.Kind {
	case KindEmail:
		*email = i.Value
	case KindLinkedInURL:
		*linkedInURL = i.Value
	}
}
