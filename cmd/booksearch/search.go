package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/ssh-vom/booksearch/internal/catalog"
	"github.com/ssh-vom/booksearch/internal/logging"
)

var (
	bookTitleStyle = lipgloss.NewStyle().Bold(true)
	bookMetaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func newSearchCmd(opts *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query...]",
		Short: "Run one search and print the results for the selected provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, provider, err := loadConfig(opts)
			if err != nil {
				return err
			}

			logger := logging.New(cfg.Verbose, os.Stderr)
			searcher, err := newSearcher(cfg, newHTTPClient(), logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout())
			defer cancel()

			return runSearch(ctx, searcher, provider, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}
}

func runSearch(ctx context.Context, searcher catalog.Searcher, provider catalog.Provider, query string, out io.Writer) error {
	result, err := searcher.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("error fetching books: %w", err)
	}

	books := result.Books(provider)
	fmt.Fprintf(out, "%s: %d result(s)\n", provider, len(books))
	for index, book := range books {
		fmt.Fprintf(out, "%2d. %s\n", index+1, bookTitleStyle.Render(book.Title))
		fmt.Fprintf(out, "    %s\n", bookMetaStyle.Render(catalog.FormatSummary(book)))
		if book.ImageURL != "" {
			fmt.Fprintf(out, "    %s\n", bookMetaStyle.Render(book.ImageURL))
		}
	}
	return nil
}
