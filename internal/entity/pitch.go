package entity

import "time"

// Sections holds the five keys of a structured pitch. Keys the model omitted stay nil.
type Sections struct {
	Opener         *string `json:"opener,omitempty" bson:"opener,omitempty"`
	IceBreaker     *string `json:"iceBreaker,omitempty" bson:"iceBreaker,omitempty"`
	FrictionPoints *string `json:"frictionPoints,omitempty" bson:"frictionPoints,omitempty"`
	Solution       *string `json:"solution,omitempty" bson:"solution,omitempty"`
	Close          *string `json:"close,omitempty" bson:"close,omitempty"`
}

// Pitch is a generated output record. Either Sections or AIMessage is populated,
// depending on the generation mode of the deployment that wrote it.
type Pitch struct {
	Email       string    `json:"email,omitempty" bson:"email,omitempty"`
	LinkedInURL string    `json:"linkedInUrl,omitempty" bson:"linkedInUrl,omitempty"`
	Sections    `bson:",inline"`
	AIMessage   *string   `json:"aiMessage,omitempty" bson:"aiMessage,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// NewSectionsPitch builds a five-section record for id.
func NewSectionsPitch(id Identifier, s Sections, now time.Time) *Pitch {
	p := &Pitch{Sections: s, CreatedAt: now}
	id.apply(&p.Email, &p.LinkedInURL)
	return p
}

// NewMessagePitch builds a single free-text record for id.
func NewMessagePitch(id Identifier, message string, now time.Time) *Pitch {
	p := &Pitch{AIMessage: &message, CreatedAt: now}
	id.apply(&p.Email, &p.LinkedInURL)
	return p
}

// HasSections reports whether any section key is present.
func (p *Pitch) HasSections() bool {
	s := p.Sections
	return s.Opener != nil || s.IceBreaker != nil || s.FrictionPoints != nil || s.Solution != nil || s.Close != nil
}
