package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ssh-vom/booksearch/internal/catalog"
	"github.com/ssh-vom/booksearch/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	result  catalog.Result
	err     error
}

func (searcher *fakeSearcher) Search(_ context.Context, query string) (catalog.Result, error) {
	searcher.mu.Lock()
	defer searcher.mu.Unlock()
	searcher.queries = append(searcher.queries, query)
	return searcher.result, searcher.err
}

func (searcher *fakeSearcher) calls() []string {
	searcher.mu.Lock()
	defer searcher.mu.Unlock()
	return append([]string(nil), searcher.queries...)
}

func duneResult() catalog.Result {
	return catalog.Result{
		GoogleBooks: &catalog.GoogleBooksPage{Items: []catalog.GoogleVolume{
			{VolumeInfo: catalog.VolumeInfo{
				Title:   "Dune",
				Authors: []string{"Frank Herbert"},
				IndustryIdentifiers: []catalog.IndustryIdentifier{
					{Type: "ISBN_13", Identifier: "9780441013593"},
				},
			}},
		}},
		OpenLibrary: &catalog.OpenLibraryPage{Docs: []catalog.OpenLibraryDoc{
			{Title: "Dune Messiah", AuthorName: []string{"Frank Herbert"}, CoverEditionKey: "OL1M"},
		}},
	}
}

func newTestModel(searcher catalog.Searcher) model {
	m := NewModel(Options{Provider: catalog.GoogleBooks}, Dependencies{Searcher: searcher})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(model)
}

func press(t *testing.T, m model, key tea.KeyMsg) (model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(key)
	next, ok := updated.(model)
	require.True(t, ok)
	return next, cmd
}

func typeText(t *testing.T, m model, text string) model {
	t.Helper()
	for _, r := range text {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// drain runs cmd and any batched commands, returning the search completions.
func drain(cmd tea.Cmd) []searchResultMsg {
	if cmd == nil {
		return nil
	}
	var results []searchResultMsg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, inner := range msg {
			results = append(results, drain(inner)...)
		}
	case searchResultMsg:
		results = append(results, msg)
	}
	return results
}

func deliver(t *testing.T, m model, msgs []searchResultMsg) model {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(model)
	}
	return m
}

func TestTypingUpdatesQuery(t *testing.T) {
	m := typeText(t, newTestModel(&fakeSearcher{}), "dune")

	assert.Equal(t, "dune", m.session.Query())
	assert.Equal(t, search.PhaseIdle, m.session.Phase())
}

func TestSubmitEmptyQueryIssuesOneFetch(t *testing.T) {
	searcher := &fakeSearcher{result: catalog.Result{}}
	m := newTestModel(searcher)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, search.PhaseLoading, m.session.Phase())

	results := drain(cmd)
	require.Len(t, results, 1)
	assert.Equal(t, []string{""}, searcher.calls())

	m = deliver(t, m, results)
	assert.Equal(t, search.PhaseSuccess, m.session.Phase())
}

func TestSwitchingProviderDoesNotFetch(t *testing.T) {
	searcher := &fakeSearcher{result: duneResult()}
	m := typeText(t, newTestModel(searcher), "dune")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Empty(t, drain(cmd))
	assert.Empty(t, searcher.calls())
	assert.Equal(t, catalog.OpenLibrary, m.session.Provider())
	assert.Equal(t, "dune", m.session.Query())
	assert.Equal(t, "dune", m.textInput.Value())

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Empty(t, drain(cmd))
	assert.Equal(t, catalog.GoogleBooks, m.session.Provider())
	assert.Empty(t, searcher.calls())
}

func TestResultsFollowSelectedProvider(t *testing.T) {
	searcher := &fakeSearcher{result: duneResult()}
	m := typeText(t, newTestModel(searcher), "dune")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = deliver(t, m, drain(cmd))
	assert.Equal(t, []string{"dune"}, searcher.calls())

	view := m.View()
	assert.Contains(t, view, "Dune")
	assert.Contains(t, view, "9780441013593")
	assert.NotContains(t, view, "Dune Messiah")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	view = m.View()
	assert.Contains(t, view, "Dune Messiah")
	assert.Len(t, searcher.calls(), 1)

	book, ok := m.selectedBook()
	require.True(t, ok)
	assert.Equal(t, "https://covers.openlibrary.org/b/olid/OL1M-M.jpg", book.ImageURL)
}

func TestFetchErrorShowsMessage(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("graphql: upstream timeout")}
	m := newTestModel(searcher)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = deliver(t, m, drain(cmd))

	assert.Equal(t, search.PhaseError, m.session.Phase())
	view := m.View()
	assert.Contains(t, view, "Error fetching books")
	assert.Contains(t, view, "graphql: upstream timeout")
}

func TestStaleResponseIsIgnored(t *testing.T) {
	m := newTestModel(&fakeSearcher{})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	fresh := catalog.Result{GoogleBooks: &catalog.GoogleBooksPage{Items: []catalog.GoogleVolume{
		{VolumeInfo: catalog.VolumeInfo{Title: "Foundation"}},
	}}}
	m = deliver(t, m, []searchResultMsg{{seq: 2, result: fresh}})
	m = deliver(t, m, []searchResultMsg{{seq: 1, result: duneResult()}})

	assert.Equal(t, search.PhaseSuccess, m.session.Phase())
	books := m.session.Books()
	require.Len(t, books, 1)
	assert.Equal(t, "Foundation", books[0].Title)
}

func TestSecondSubmitWhileLoadingStillFetches(t *testing.T) {
	searcher := &fakeSearcher{}
	m := newTestModel(searcher)

	m, first := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	_, second := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Len(t, drain(first), 1)
	assert.Len(t, drain(second), 1)
	assert.Len(t, searcher.calls(), 2)
}

func TestMissingSearcherSurfacesError(t *testing.T) {
	m := newTestModel(nil)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = deliver(t, m, drain(cmd))

	assert.Equal(t, search.PhaseError, m.session.Phase())
	assert.Contains(t, m.View(), "book search service unavailable")
}

func TestEscQuits(t *testing.T) {
	m := newTestModel(&fakeSearcher{})

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestLayoutHelpers(t *testing.T) {
	assert.Equal(t, 40, coverPanelWidth(120))
	assert.Equal(t, 78, resultsListWidth(120))
	assert.Equal(t, 56, resultsListWidth(60))

	cols, rows := coverRenderSize(40, 100, 150)
	assert.Equal(t, 38, cols)
	assert.Equal(t, 24, rows)

	assert.Equal(t, "ab…", truncate("abcdef", 2))
	assert.Equal(t, "abc", truncate("abc", 5))
}

func TestLongQueryIsSentWhole(t *testing.T) {
	searcher := &fakeSearcher{}
	m := newTestModel(searcher)
	long := strings.Repeat("a", 300)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(long), Paste: true})
	assert.Equal(t, long, m.session.Query())

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, drain(cmd), 1)

	calls := searcher.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, long, calls[0])
}

func TestFailureAfterSuccessHidesPreviousList(t *testing.T) {
	searcher := &fakeSearcher{result: duneResult()}
	m := typeText(t, newTestModel(searcher), "herbert")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = deliver(t, m, drain(cmd))
	require.Contains(t, m.View(), "Dune")

	searcher.mu.Lock()
	searcher.result, searcher.err = catalog.Result{}, errors.New("graphql: server returned 502 Bad Gateway")
	searcher.mu.Unlock()

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = deliver(t, m, drain(cmd))

	view := m.View()
	assert.Equal(t, search.PhaseError, m.session.Phase())
	assert.Contains(t, view, "Error fetching books")
	assert.Contains(t, view, "502 Bad Gateway")
	assert.NotContains(t, view, "Dune")
	assert.NotContains(t, view, "9780441013593")
}

func TestSpinnerShownOnlyWhileLoading(t *testing.T) {
	m := newTestModel(&fakeSearcher{result: duneResult()})
	assert.NotContains(t, m.View(), "Searching...")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.View(), "Searching...")

	m = deliver(t, m, drain(cmd))
	assert.NotContains(t, m.View(), "Searching...")
	assert.Contains(t, m.View(), "Dune")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = deliver(t, m, []searchResultMsg{{seq: 2, err: errors.New("timeout")}})
	assert.NotContains(t, m.View(), "Searching...")
}

func TestLoadingReplacesPreviousList(t *testing.T) {
	m := typeText(t, newTestModel(&fakeSearcher{result: duneResult()}), "herbert")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = deliver(t, m, drain(cmd))
	require.Contains(t, m.View(), "Dune")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	view := m.View()
	assert.Contains(t, view, "Searching...")
	assert.NotContains(t, view, "Dune")
	assert.NotContains(t, view, "9780441013593")
}
