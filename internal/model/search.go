package model

import "time"

// SearchRequest is a conjunctive document filter.
// Every field is optional: a nil or empty slice and a nil time put no constraint on that field.
type SearchRequest struct {
	TitlePrefixes    []string   `json:"title_prefixes,omitempty"`
	ContainsContents []string   `json:"contains_contents,omitempty"`
	AuthorIDs        []string   `json:"author_ids,omitempty"`
	CreatedFrom      *time.Time `json:"created_from,omitempty"`
	CreatedTo        *time.Time `json:"created_to,omitempty"`
}

// IsEmpty reports whether the request puts no constraint on any field.
func (r SearchRequest) IsEmpty() bool {
	return len(r.TitlePrefixes) == 0 &&
		len(r.ContainsContents) == 0 &&
		len(r.AuthorIDs) == 0 &&
		r.CreatedFrom == nil &&
		r.CreatedTo == nil
}
