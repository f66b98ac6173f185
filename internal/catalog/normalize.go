package catalog

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	isbn13Type             = "ISBN_13"
	openLibraryCoverFormat = "https://covers.openlibrary.org/b/olid/%s-M.jpg"
)

func NormalizeGoogleVolume(volume GoogleVolume) Book {
	info := volume.VolumeInfo

	book := Book{
		Title:       info.Title,
		Subtitle:    info.Subtitle,
		Authors:     info.Authors,
		ISBN:        pickISBN(info.IndustryIdentifiers),
		Description: PlainText(info.Description),
		Rating:      info.AverageRating,
	}
	if info.ImageLinks != nil {
		book.ImageURL = info.ImageLinks.Thumbnail
	}
	return book
}

func NormalizeOpenLibraryDoc(doc OpenLibraryDoc) Book {
	book := Book{
		Title:    doc.Title,
		Authors:  doc.AuthorName,
		ImageURL: OpenLibraryCoverURL(doc.CoverEditionKey),
	}
	if len(doc.ISBN) > 0 {
		book.ISBN = doc.ISBN[0]
	}
	return book
}

func OpenLibraryCoverURL(editionKey string) string {
	return fmt.Sprintf(openLibraryCoverFormat, editionKey)
}

// Books normalizes the page belonging to provider and ignores the other one.
func (result *Result) Books(provider Provider) []Book {
	if result == nil {
		return nil
	}

	switch provider {
	case OpenLibrary:
		if result.OpenLibrary == nil {
			return nil
		}
		books := make([]Book, 0, len(result.OpenLibrary.Docs))
		for _, doc := range result.OpenLibrary.Docs {
			books = append(books, NormalizeOpenLibraryDoc(doc))
		}
		return books
	default:
		if result.GoogleBooks == nil {
			return nil
		}
		books := make([]Book, 0, len(result.GoogleBooks.Items))
		for _, volume := range result.GoogleBooks.Items {
			books = append(books, NormalizeGoogleVolume(volume))
		}
		return books
	}
}

func pickISBN(identifiers []IndustryIdentifier) string {
	for _, identifier := range identifiers {
		if identifier.Type == isbn13Type {
			return identifier.Identifier
		}
	}
	if len(identifiers) > 0 {
		return identifiers[0].Identifier
	}
	return ""
}

// PlainText flattens an HTML fragment (Google Books descriptions carry
// <p>, <b>, <br>) into a single line of text.
func PlainText(fragment string) string {
	trimmed := strings.TrimSpace(fragment)
	if trimmed == "" || !strings.ContainsAny(trimmed, "<&") {
		return strings.Join(strings.Fields(trimmed), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return trimmed
	}
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p").Each(func(_ int, selection *goquery.Selection) {
		selection.AppendHtml(" ")
	})

	return strings.Join(strings.Fields(doc.Text()), " ")
}
