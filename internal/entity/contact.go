package entity

import (
	"fmt"
	"strings"
	"time"
)

// ContactData is the opaque enrichment payload returned by the contact provider.
type ContactData map[string]any

// Contact is a cached enrichment record keyed by email or LinkedIn URL.
type Contact struct {
	Email       string      `json:"email,omitempty" bson:"email,omitempty"`
	LinkedInURL string      `json:"linkedInUrl,omitempty" bson:"linkedInUrl,omitempty"`
	Data        ContactData `json:"data" bson:"data"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt   *time.Time  `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// NewContact builds a record for id holding the provider payload.
func NewContact(id Identifier, data ContactData, now time.Time) *Contact {
	c := &Contact{Data: data, CreatedAt: now}
	id.apply(&c.Email, &c.LinkedInURL)
	return c
}

// Success reports the provider's success flag.
func (d ContactData) Success() bool {
	v, _ := d["success"].(bool)
	return v
}

// FirstName returns person.firstName.
func (d ContactData) FirstName() string { return d.nestedString("person", "firstName") }

// Headline returns person.headline.
func (d ContactData) Headline() string { return d.nestedString("person", "headline") }

// CompanyName returns company.name.
func (d ContactData) CompanyName() string { return d.nestedString("company", "name") }

// Industry returns company.industry.
func (d ContactData) Industry() string { return d.nestedString("company", "industry") }

// PainPoints returns workflow_pain_points in order. Empty and null entries are kept as "".
func (d ContactData) PainPoints() []string {
	raw, ok := d["workflow_pain_points"].([]any)
	if !ok {
		if s, ok := d["workflow_pain_points"].([]string); ok {
			return s
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case nil:
			out = append(out, "")
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

func (d ContactData) nestedString(section, field string) string {
	obj, ok := d[section].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj[field].(string)
	return strings.TrimSpace(s)
}
