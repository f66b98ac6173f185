package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ssh-vom/booksearch/internal/catalog"
	"github.com/ssh-vom/booksearch/internal/cover"
	"github.com/ssh-vom/booksearch/internal/search"
)

func (model model) View() string {
	lines := []string{
		titleStyle.Render("Book Search"),
		model.textInput.View(),
		model.providerTabs(),
	}

	switch model.session.Phase() {
	case search.PhaseLoading:
		lines = append(lines, model.spinner.View()+" Searching...")
	case search.PhaseError:
		lines = append(lines, model.errorView())
	default:
		lines = append(lines, model.resultsView())
	}

	lines = append(lines, secondaryStyle.Render("Enter to search · Tab to switch provider · ↑/↓ to browse · Esc to quit"))

	view := lipgloss.JoinVertical(lipgloss.Left, lines...)
	if model.verbose {
		view = lipgloss.JoinVertical(lipgloss.Left, view, model.logView())
	}
	return view
}

func (model model) providerTabs() string {
	tabs := make([]string, 0, len(catalog.Providers))
	for _, provider := range catalog.Providers {
		style := inactiveTabStyle
		if provider == model.session.Provider() {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(provider.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (model model) errorView() string {
	message := ""
	if err := model.session.Err(); err != nil {
		message = err.Error()
	}
	return errorPanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		errorTitleStyle.Render("Error fetching books"),
		message,
	))
}

func (model model) resultsView() string {
	if len(model.resultsList.Items()) == 0 {
		return ""
	}

	listView := lipgloss.NewStyle().Width(resultsListWidth(model.width)).Render(model.resultsList.View())
	if model.width < 80 {
		return listView
	}

	book, _ := model.selectedBook()
	return lipgloss.JoinHorizontal(lipgloss.Top, listView, model.detailPanel(book, coverPanelWidth(model.width)))
}

func (model model) detailPanel(book catalog.Book, width int) string {
	if width < 20 {
		width = 20
	}

	lines := []string{panelTitleStyle.Render(book.Title)}
	if book.Subtitle != "" {
		lines = append(lines, secondaryStyle.Render(book.Subtitle))
	}
	lines = append(lines, catalog.FormatAuthors(book))
	if book.ISBN != "" {
		lines = append(lines, "ISBN "+book.ISBN)
	}
	if book.Rating > 0 {
		lines = append(lines, fmt.Sprintf("Rating %.1f", book.Rating))
	}
	lines = append(lines, "")
	lines = append(lines, model.coverView(book, width)...)
	if book.Description != "" {
		lines = append(lines, "", truncate(book.Description, 400))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return panelStyle.Width(width).Render(content)
}

func (model model) coverView(book catalog.Book, width int) []string {
	if !model.supportsGraphics {
		return nil
	}
	if book.ImageURL == "" {
		return []string{secondaryStyle.Render("No cover available.")}
	}

	image, ok := model.coverCache[book.ImageURL]
	if !ok {
		if errText, failed := model.coverErrors[book.ImageURL]; failed {
			return []string{warningStyle.Render(errText)}
		}
		cols, rows := coverRenderSize(width, 0, 0)
		return []string{secondaryStyle.Render("Loading cover..."), coverPlaceholder(rows, cols)}
	}

	cols, rows := coverRenderSize(width, image.Width, image.Height)
	render, err := cover.RenderKitty(image.FilePath, cols, rows)
	if err != nil {
		return []string{warningStyle.Render(err.Error())}
	}
	return []string{render + "\n" + coverPlaceholder(rows, cols)}
}

func (model model) logView() string {
	if len(model.logLines) == 0 {
		return secondaryStyle.Render("Logs: (no entries)")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		secondaryStyle.Render("Logs:"),
		strings.Join(model.logLines, "\n"),
	)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func listHeight(height int) int {
	if height <= 12 {
		return height
	}

	return height - 10
}

const coverCellAspectRatio = 0.5

func coverRenderSize(panelWidth int, imageWidth, imageHeight int) (int, int) {
	cols := panelWidth - 2
	if cols < 12 {
		cols = 12
	}

	rows := 12
	if imageWidth > 0 && imageHeight > 0 {
		ratio := float64(imageHeight) / float64(imageWidth)
		rows = int(math.Round(float64(cols) * ratio * coverCellAspectRatio))
	}

	if rows < 6 {
		rows = 6
	}
	if rows > 24 {
		rows = 24
	}

	return cols, rows
}

func coverPlaceholder(rows, cols int) string {
	if rows <= 0 || cols <= 0 {
		return ""
	}

	line := strings.Repeat(" ", cols)
	lines := make([]string, rows)
	for i := 0; i < rows; i++ {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func coverPanelWidth(totalWidth int) int {
	if totalWidth <= 40 {
		return totalWidth
	}

	panelWidth := totalWidth / 3
	if panelWidth < 28 {
		panelWidth = 28
	}
	if panelWidth > totalWidth-20 {
		panelWidth = totalWidth - 20
	}
	return panelWidth
}

func resultsListWidth(totalWidth int) int {
	if totalWidth < 80 {
		if totalWidth-4 < 20 {
			return 20
		}
		return totalWidth - 4
	}
	listWidth := totalWidth - coverPanelWidth(totalWidth) - 2
	if listWidth < 20 {
		listWidth = 20
	}
	return listWidth
}

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	secondaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4169E1")).Padding(0, 2)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 2)
	errorTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	errorPanelStyle  = lipgloss.NewStyle().Padding(1, 1)
	panelTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	panelStyle       = lipgloss.NewStyle().Padding(0, 1)
)
