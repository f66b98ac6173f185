package ui

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/ssh-vom/booksearch/internal/catalog"
	"github.com/ssh-vom/booksearch/internal/cover"
	"github.com/ssh-vom/booksearch/internal/search"
)

const defaultRequestTimeout = 20 * time.Second

type bookItem struct {
	book catalog.Book
}

func (item bookItem) Title() string {
	if item.book.Title == "" {
		return "Untitled"
	}
	return item.book.Title
}
func (item bookItem) Description() string { return catalog.FormatSummary(item.book) }
func (item bookItem) FilterValue() string { return item.book.Title }

type searchResultMsg struct {
	seq    uint64
	result catalog.Result
	err    error
}

type coverLoadedMsg struct {
	url   string
	image cover.Image
	err   error
}

type logMsg string

type CoverFetcher interface {
	Fetch(ctx context.Context, coverURL string) ([]byte, error)
}

type Dependencies struct {
	Searcher     catalog.Searcher
	CoverFetcher CoverFetcher
	CoverStore   *cover.Store
	Logger       logrus.FieldLogger
	// LogLines feeds the on-screen log panel when verbose.
	LogLines <-chan string
}

type Options struct {
	Provider         catalog.Provider
	RequestTimeout   time.Duration
	Verbose          bool
	SupportsGraphics bool
}

type model struct {
	session  *search.Session
	searcher catalog.Searcher
	timeout  time.Duration
	logger   logrus.FieldLogger

	textInput   textinput.Model
	resultsList list.Model
	spinner     spinner.Model

	coverFetcher     CoverFetcher
	coverStore       *cover.Store
	coverCache       map[string]cover.Image
	coverErrors      map[string]string
	coverLoadingURL  string
	supportsGraphics bool

	width  int
	height int

	logLines   []string
	logChannel <-chan string
	verbose    bool
}

func NewModel(options Options, deps Dependencies) model {
	spinnerModel := spinner.New()
	spinnerModel.Spinner = spinner.Dot

	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	logger := deps.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	return model{
		session:          search.NewSession(options.Provider),
		searcher:         deps.Searcher,
		timeout:          timeout,
		logger:           logger,
		textInput:        newQueryInput(),
		resultsList:      newResultsList(nil, options.Provider, 0, 0),
		spinner:          spinnerModel,
		coverFetcher:     deps.CoverFetcher,
		coverStore:       deps.CoverStore,
		coverCache:       map[string]cover.Image{},
		coverErrors:      map[string]string{},
		supportsGraphics: options.SupportsGraphics && deps.CoverStore != nil,
		logChannel:       deps.LogLines,
		verbose:          options.Verbose,
	}
}

func (model model) Init() tea.Cmd {
	commands := []tea.Cmd{textinput.Blink}
	if model.verbose && model.logChannel != nil {
		commands = append(commands, listenLogCmd(model.logChannel))
	}
	return tea.Batch(commands...)
}

func (model model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		model.width = msg.Width
		model.height = msg.Height
		model.resultsList.SetSize(resultsListWidth(msg.Width), listHeight(msg.Height))
		model.textInput.Width = msg.Width - 6
		return model, nil
	case searchResultMsg:
		if !model.session.Resolve(msg.seq, msg.result, msg.err) {
			model.logger.WithField("seq", msg.seq).Debug("discarding stale search response")
			return model, nil
		}
		if msg.err != nil {
			model.logger.WithError(msg.err).Warn("search failed")
		}
		return model, model.refreshResults()
	case spinner.TickMsg:
		if !model.session.Loading() {
			return model, nil
		}
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(msg)
		return model, cmd
	case coverLoadedMsg:
		if msg.err != nil {
			model.coverErrors[msg.url] = msg.err.Error()
		} else if msg.image.FilePath != "" {
			model.coverCache[msg.url] = msg.image
		}
		if model.coverLoadingURL == msg.url {
			model.coverLoadingURL = ""
		}
		return model, model.requestCoverCmd()
	case logMsg:
		model.logLines = append(model.logLines, string(msg))
		if len(model.logLines) > 6 {
			model.logLines = model.logLines[len(model.logLines)-6:]
		}
		return model, listenLogCmd(model.logChannel)
	case tea.KeyMsg:
		return model, model.handleKey(msg)
	}

	var cmd tea.Cmd
	model.textInput, cmd = model.textInput.Update(msg)
	return model, cmd
}

func (model *model) handleKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "ctrl+c", "esc":
		return tea.Quit
	case "enter":
		return model.submit()
	case "tab", "shift+tab", "ctrl+left", "ctrl+right":
		model.session.ToggleProvider()
		return model.refreshResults()
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		model.resultsList, cmd = model.resultsList.Update(key)
		return tea.Batch(cmd, model.requestCoverCmd())
	}

	var cmd tea.Cmd
	model.textInput, cmd = model.textInput.Update(key)
	model.session.SetQuery(model.textInput.Value())
	return cmd
}

func (model *model) submit() tea.Cmd {
	spinning := model.session.Loading()
	request := model.session.Submit()
	model.logger.WithField("seq", request.Seq).WithField("query", request.Query).Debug("submitting search")

	searchCmd := searchBooksCmd(model.searcher, request, model.timeout)
	if spinning {
		return searchCmd
	}
	return tea.Batch(model.spinner.Tick, searchCmd)
}

// refreshResults rebuilds the list from the selected provider's page.
func (model *model) refreshResults() tea.Cmd {
	books := model.session.Books()
	items := make([]list.Item, 0, len(books))
	for _, book := range books {
		items = append(items, bookItem{book: book})
	}

	model.resultsList.Title = model.session.Provider().String()
	listCmd := model.resultsList.SetItems(items)
	model.resultsList.ResetSelected()
	return tea.Batch(listCmd, model.requestCoverCmd())
}

func (model *model) selectedBook() (catalog.Book, bool) {
	if len(model.resultsList.Items()) == 0 {
		return catalog.Book{}, false
	}
	if item, ok := model.resultsList.SelectedItem().(bookItem); ok {
		return item.book, true
	}
	return catalog.Book{}, false
}

func (model *model) requestCoverCmd() tea.Cmd {
	if !model.supportsGraphics || model.coverFetcher == nil {
		return nil
	}

	book, ok := model.selectedBook()
	if !ok || book.ImageURL == "" {
		return nil
	}
	coverURL := book.ImageURL

	if _, ok := model.coverCache[coverURL]; ok {
		return nil
	}
	if _, ok := model.coverErrors[coverURL]; ok {
		return nil
	}
	if model.coverLoadingURL != "" {
		return nil
	}

	model.coverLoadingURL = coverURL
	return fetchCoverCmd(model.coverFetcher, model.coverStore, coverURL, model.timeout)
}

func searchBooksCmd(searcher catalog.Searcher, request search.Request, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		if searcher == nil {
			return searchResultMsg{seq: request.Seq, err: errors.New("book search service unavailable")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		result, err := searcher.Search(ctx, request.Query)
		return searchResultMsg{seq: request.Seq, result: result, err: err}
	}
}

func fetchCoverCmd(fetcher CoverFetcher, store *cover.Store, coverURL string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		body, err := fetcher.Fetch(ctx, coverURL)
		if err != nil {
			return coverLoadedMsg{url: coverURL, err: err}
		}

		image, err := store.Save(coverURL, body)
		if err != nil {
			return coverLoadedMsg{url: coverURL, err: err}
		}

		return coverLoadedMsg{url: coverURL, image: image}
	}
}

func listenLogCmd(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return logMsg(<-ch)
	}
}

func newQueryInput() textinput.Model {
	input := textinput.New()
	input.Placeholder = "Search books, e.g. Dune"
	input.Prompt = "> "
	input.Focus()
	return input
}

func newResultsList(books []catalog.Book, provider catalog.Provider, width, height int) list.Model {
	items := make([]list.Item, 0, len(books))
	for _, book := range books {
		items = append(items, bookItem{book: book})
	}

	resultList := list.New(items, list.NewDefaultDelegate(), width, height)
	resultList.Title = provider.String()
	resultList.SetShowStatusBar(false)
	resultList.SetFilteringEnabled(false)
	resultList.SetShowHelp(false)

	return resultList
}
