package core

import "time"

// Fact is one record in an iso's append-only fact store.
type Fact struct {
	ID         string    `json:"id" yaml:"id"`
	Text       string    `json:"text" yaml:"text"`
	Source     string    `json:"source,omitempty" yaml:"source,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Superseded bool      `json:"superseded,omitempty" yaml:"superseded,omitempty"`
}

// NewFact constructs a fact with a fresh id and UTC timestamp.
func NewFact(text, source string) Fact {
	return Fact{
		ID:        NewID(),
		Text:      text,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}
