package core

import (
	"encoding/json"
	"fmt"
)

// SourceParams is one entry of the data source catalog.
type SourceParams struct {
	Name   string
	Driver string
	// URL is a template; .User and .Password are filled from the credentials
	URL string
}

// Expand returns a copy of the original parameters with expanded fields.
func (p *SourceParams) Expand(creds *Credentials) (*SourceParams, error) {
	if creds == nil {
		creds = &Credentials{}
	}

	url, err := Expand(p.URL, creds)
	if err != nil {
		return nil, fmt.Errorf("source %q: expand url: %w", p.Name, err)
	}

	return &SourceParams{
		Name:   p.Name,
		Driver: ExpandOrDefault(p.Driver, nil),
		URL:    url,
	}, nil
}

// MarshalJSON never includes the url, it may carry secrets.
func (p *SourceParams) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string `json:"name"`
		Driver string `json:"driver"`
	}{
		Name:   p.Name,
		Driver: p.Driver,
	})
}
