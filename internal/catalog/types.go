package catalog

import (
	"context"
	"fmt"
	"strings"
)

type Provider int

const (
	GoogleBooks Provider = iota
	OpenLibrary
)

var Providers = []Provider{GoogleBooks, OpenLibrary}

func (provider Provider) String() string {
	switch provider {
	case OpenLibrary:
		return "Open Library"
	default:
		return "Google Books"
	}
}

// Key is the top-level field of the federated query holding this provider's results.
func (provider Provider) Key() string {
	switch provider {
	case OpenLibrary:
		return "openLibrarySearch"
	default:
		return "googleBooksSearch"
	}
}

func (provider Provider) Other() Provider {
	if provider == OpenLibrary {
		return GoogleBooks
	}
	return OpenLibrary
}

func ParseProvider(value string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "google", "googlebooks", "google books", "googlebookssearch":
		return GoogleBooks, nil
	case "openlibrary", "open library", "ol", "openlibrarysearch":
		return OpenLibrary, nil
	}
	return GoogleBooks, fmt.Errorf("unknown provider %q", value)
}

type IndustryIdentifier struct {
	Identifier string `json:"identifier"`
	Type       string `json:"type"`
}

type ImageLinks struct {
	Thumbnail string `json:"thumbnail"`
}

type VolumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Authors             []string             `json:"authors"`
	AverageRating       float64              `json:"averageRating"`
	Description         string               `json:"description"`
	ImageLinks          *ImageLinks          `json:"imageLinks"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
}

type GoogleVolume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type OpenLibraryDoc struct {
	AuthorName      []string `json:"author_name"`
	Title           string   `json:"title"`
	CoverEditionKey string   `json:"cover_edition_key"`
	ISBN            []string `json:"isbn"`
}

type GoogleBooksPage struct {
	Items []GoogleVolume `json:"items"`
}

type OpenLibraryPage struct {
	Docs []OpenLibraryDoc `json:"docs"`
}

// Result is one federated response. Either page is nil when the service
// returned null for that field.
type Result struct {
	GoogleBooks *GoogleBooksPage `json:"googleBooksSearch"`
	OpenLibrary *OpenLibraryPage `json:"openLibrarySearch"`
}

// Book is the provider-independent item the screen renders.
// Empty strings and nil slices mean the provider did not supply the field.
type Book struct {
	Title       string
	Subtitle    string
	ImageURL    string
	Authors     []string
	ISBN        string
	Description string
	Rating      float64
}

type Searcher interface {
	Search(ctx context.Context, query string) (Result, error)
}

func FormatAuthors(book Book) string {
	if len(book.Authors) == 0 {
		return "Unknown author"
	}
	return strings.Join(book.Authors, ", ")
}

func FormatSummary(book Book) string {
	label := FormatAuthors(book)
	if book.ISBN != "" {
		label = fmt.Sprintf("%s · ISBN %s", label, book.ISBN)
	}
	return label
}
