// Package search holds the state of the book search screen: the query text,
// the selected provider, and the outcome of the latest submitted fetch.
//
// Every submit is tagged with a sequence number. Completions that belong to
// an older submit are dropped, so overlapping fetches can never leave the
// screen showing a response to a query the user has since replaced.
package search

import "github.com/ssh-vom/booksearch/internal/catalog"

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (phase Phase) String() string {
	switch phase {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

type Request struct {
	Seq   uint64
	Query string
}

type Session struct {
	query    string
	provider catalog.Provider
	result   *catalog.Result
	loading  bool
	err      error

	seq uint64
}

func NewSession(provider catalog.Provider) *Session {
	return &Session{provider: provider}
}

func (session *Session) Query() string              { return session.query }
func (session *Session) Provider() catalog.Provider { return session.provider }
func (session *Session) Loading() bool              { return session.loading }
func (session *Session) Err() error                 { return session.err }
func (session *Session) Result() *catalog.Result    { return session.result }

func (session *Session) SetQuery(text string) {
	session.query = text
}

func (session *Session) SelectProvider(provider catalog.Provider) {
	session.provider = provider
}

func (session *Session) ToggleProvider() {
	session.provider = session.provider.Other()
}

// Submit starts a new fetch for the current text. The caller must perform
// exactly one search for the returned request and hand the outcome to Resolve.
func (session *Session) Submit() Request {
	session.seq++
	session.loading = true
	session.err = nil
	return Request{Seq: session.seq, Query: session.query}
}

// Resolve applies the outcome of a fetch. It reports false when the request
// has been superseded by a later Submit and the outcome was discarded.
func (session *Session) Resolve(seq uint64, result catalog.Result, err error) bool {
	if seq != session.seq {
		return false
	}

	session.loading = false
	if err != nil {
		session.err = err
		session.result = nil
		return true
	}

	session.err = nil
	session.result = &result
	return true
}

func (session *Session) Phase() Phase {
	switch {
	case session.loading:
		return PhaseLoading
	case session.err != nil:
		return PhaseError
	case session.result != nil:
		return PhaseSuccess
	default:
		return PhaseIdle
	}
}

// Books normalizes the selected provider's page of the last result.
func (session *Session) Books() []catalog.Book {
	return session.result.Books(session.provider)
}
