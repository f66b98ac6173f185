// Package federated talks to the federated book-search service. A single
// document asks both catalogs at once and returns their results under
// separate top-level fields.
package federated

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"github.com/sirupsen/logrus"
	"github.com/ssh-vom/booksearch/internal/catalog"
)

const (
	defaultCountry = "US"
	userAgent      = "booksearch/0.1"
)

var ErrFetchFailed = errors.New("fetch failed")

// FetchError keeps the underlying message intact so the screen can show it
// verbatim, while still matching ErrFetchFailed.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

const searchBooksQuery = `
query SearchBooks($q: String, $country: String) {
  googleBooksSearch(q: $q, country: $country) {
    items {
      id
      volumeInfo {
        authors
        averageRating
        description
        imageLinks {
          thumbnail
        }
        title
        subtitle
        industryIdentifiers {
          identifier
          type
        }
      }
    }
  }
  openLibrarySearch(q: $q) {
    docs {
      author_name
      title
      cover_edition_key
      isbn
    }
  }
}
`

type Client struct {
	client  *graphql.Client
	country string
	logger  logrus.FieldLogger
}

func New(endpoint, country string, httpClient *http.Client, logger logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if strings.TrimSpace(country) == "" {
		country = defaultCountry
	}
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	client := graphql.NewClient(endpoint, graphql.WithHTTPClient(withStatusCheck(httpClient)))
	client.Log = func(line string) {
		logger.Debug(line)
	}

	return &Client{client: client, country: country, logger: logger}
}

// Search runs the federated query once. The text is forwarded as-is, the
// empty string included.
func (c *Client) Search(ctx context.Context, query string) (catalog.Result, error) {
	request := graphql.NewRequest(searchBooksQuery)
	request.Var("q", query)
	request.Var("country", c.country)
	request.Header.Set("User-Agent", userAgent)

	started := time.Now()
	var result catalog.Result
	if err := c.client.Run(ctx, request, &result); err != nil {
		c.logger.WithError(err).WithField("query", query).Warn("book search failed")
		return catalog.Result{}, &FetchError{Err: err}
	}

	entry := c.logger.WithField("query", query).WithField("elapsed", time.Since(started).Round(time.Millisecond))
	if result.GoogleBooks != nil {
		entry = entry.WithField(catalog.GoogleBooks.Key(), len(result.GoogleBooks.Items))
	}
	if result.OpenLibrary != nil {
		entry = entry.WithField(catalog.OpenLibrary.Key(), len(result.OpenLibrary.Docs))
	}
	entry.Info("book search finished")

	return result, nil
}

// statusTransport fails any non-2xx response. The graphql client only looks
// at the body, so a gateway error with a JSON body would otherwise decode as
// an empty result.
type statusTransport struct {
	base http.RoundTripper
}

func (transport statusTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	response, err := transport.base.RoundTrip(request)
	if err != nil {
		return nil, err
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 64<<10))
		response.Body.Close()
		return nil, fmt.Errorf("graphql: server returned %s", response.Status)
	}
	return response, nil
}

func withStatusCheck(httpClient *http.Client) *http.Client {
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *httpClient
	wrapped.Transport = statusTransport{base: base}
	return &wrapped
}
