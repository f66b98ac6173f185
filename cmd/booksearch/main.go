package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ssh-vom/booksearch/internal/catalog"
	"github.com/ssh-vom/booksearch/internal/catalog/federated"
	"github.com/ssh-vom/booksearch/internal/config"
	"github.com/ssh-vom/booksearch/internal/cover"
	"github.com/ssh-vom/booksearch/internal/logging"
	"github.com/ssh-vom/booksearch/internal/ui"
)

type flags struct {
	verbose  bool
	endpoint string
	provider string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &flags{}

	rootCmd := &cobra.Command{
		Use:           "booksearch",
		Short:         "Search Google Books and Open Library from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "show verbose logs")
	rootCmd.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "federated GraphQL endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.provider, "provider", "", "provider to show: google or openlibrary")

	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	return rootCmd
}

func loadConfig(opts *flags) (config.Config, catalog.Provider, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, catalog.GoogleBooks, fmt.Errorf("error loading config: %w", err)
	}

	if opts.verbose {
		cfg.Verbose = true
	}
	if opts.endpoint != "" {
		cfg.GraphQLEndpoint = opts.endpoint
	}
	if opts.provider != "" {
		cfg.DefaultProvider = opts.provider
	}

	if err := cfg.Validate(); err != nil {
		return cfg, catalog.GoogleBooks, err
	}
	provider, err := cfg.Provider()
	return cfg, provider, err
}

func runTUI(opts *flags) error {
	cfg, provider, err := loadConfig(opts)
	if err != nil {
		return err
	}

	var logLines chan string
	var logOutput io.Writer = io.Discard
	if cfg.Verbose {
		logLines = make(chan string, 200)
		logOutput = logging.ChannelWriter{Lines: logLines}
	}
	logger := logging.New(cfg.Verbose, logOutput)

	httpClient := newHTTPClient()
	searcher, err := newSearcher(cfg, httpClient, logger)
	if err != nil {
		return err
	}

	supportsGraphics := cover.SupportsKitty(os.Getenv("TERM"))
	var store *cover.Store
	if supportsGraphics {
		store, err = cover.NewStore()
		if err != nil {
			logger.WithError(err).Warn("cover previews disabled")
			supportsGraphics = false
		} else {
			defer store.Close()
		}
	}

	model := ui.NewModel(ui.Options{
		Provider:         provider,
		RequestTimeout:   cfg.RequestTimeout(),
		Verbose:          cfg.Verbose,
		SupportsGraphics: supportsGraphics,
	}, ui.Dependencies{
		Searcher:     searcher,
		CoverFetcher: cover.NewFetcher(httpClient),
		CoverStore:   store,
		Logger:       logger,
		LogLines:     logLines,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func newSearcher(cfg config.Config, httpClient *http.Client, logger logrus.FieldLogger) (*federated.Client, error) {
	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, err
	}
	return federated.New(endpoint, cfg.Country, httpClient, logger), nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
