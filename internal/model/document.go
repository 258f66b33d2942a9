package model

import "time"

// Author is the author record embedded in a Document.
// Each document owns its own copy; authors are never shared between documents.
type Author struct {
	ID   string  `json:"id,omitempty"`
	Name *string `json:"name"`
}

// Document represents a stored text document.
// This is a pure domain model with no storage-specific dependencies.
// Nil pointer fields are absent values; a zero Created means the timestamp is unset.
type Document struct {
	ID      string    `json:"id,omitempty"`
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Author  *Author   `json:"author"`
	Created time.Time `json:"created"`
}

// Clone returns a deep copy of d so the copy shares no pointers with the original.
func (d Document) Clone() Document {
	out := d
	out.Title = cloneString(d.Title)
	out.Content = cloneString(d.Content)
	if d.Author != nil {
		a := *d.Author
		a.Name = cloneString(d.Author.Name)
		out.Author = &a
	}
	return out
}

// AuthorID returns the embedded author's id, or "" when there is no author.
func (d Document) AuthorID() string {
	if d.Author == nil {
		return ""
	}
	return d.Author.ID
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
