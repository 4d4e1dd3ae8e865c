// Package model defines the data types shared by the corpus store, the search
// pipeline and the HTTP API.
package model

// Placeholder values shown for a hit whose identifier is not in the corpus.
const (
	UnknownTitle    = "Unknown Title"
	UnknownAuthor   = "Unknown Author"
	UnknownYear     = "Unknown Year"
	UnknownCategory = "Unknown Category"
)

// AllCategories is the category sentinel meaning "no category restriction".
const AllCategories = "All Categories"

// MetadataRecord describes one document of the corpus.
// An empty string means the value is missing. Year is kept as loaded and is not
// guaranteed to be numeric.
type MetadataRecord struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	Year       string `json:"year,omitempty"`
	Category   string `json:"category,omitempty"`
}

// HasCategory reports whether the record carries a category.
func (r MetadataRecord) HasCategory() bool {
	return r.Category != ""
}

// HasAuthor reports whether the record carries an author.
func (r MetadataRecord) HasAuthor() bool {
	return r.Author != ""
}
