package domain

import "strings"

// KeywordQuery is a free-text catalog search. The fields are joined
// with spaces into one keyword, in order.
type KeywordQuery struct {
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	Value        string `json:"value,omitempty" yaml:"value,omitempty"`
	Package      string `json:"package,omitempty" yaml:"package,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`

	// Page is 1-based; zero means the first page.
	Page int `json:"page,omitempty" yaml:"page,omitempty"`
}

// Keyword returns the non-empty fields joined by single spaces.
func (q KeywordQuery) Keyword() string {
	var parts []string
	for _, p := range []string{q.Name, q.Value, q.Package, q.Manufacturer} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// PageOrFirst returns Page, or 1 when it is not positive.
func (q KeywordQuery) PageOrFirst() int {
	if q.Page < 1 {
		return 1
	}
	return q.Page
}

// SearchHit is one row of a keyword search. SourceID may be empty when
// the catalog lists a part it has no LCSC code for.
type SearchHit struct {
	SourceID    string `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Package     string `json:"package,omitempty" yaml:"package,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	UUID        string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
}
