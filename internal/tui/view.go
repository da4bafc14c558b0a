package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	mprogress "github.com/handiism/manga-downloader/internal/progress"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	seriesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Manga Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download manga chapters as images, CBZ or EPUB"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateLoading:
		b.WriteString(m.viewLoading())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Series URL:"))
	b.WriteString("\n")
	b.WriteString(m.urlInput.View())
	b.WriteString("\n\n")
	b.WriteString(subtitleStyle.Render("Chapters (e.g. 1-10, 12):"))
	b.WriteString("\n")
	b.WriteString(m.selInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Format: %s (ctrl+f)\n", m.settings.Format)
	fmt.Fprintf(&b, "  Workers: %d chapters × %d pages\n", m.settings.ChapterWorkers, m.settings.AssetWorkers)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download path: %s", m.settings.DownloadsPath)))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewLoading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Fetching series and chapter pages..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.series != nil {
		b.WriteString(seriesStyle.Render(fmt.Sprintf("%s (%d chapters)", m.series.Title, len(m.series.Chapters))))
		b.WriteString("\n\n")
	}

	b.WriteString(m.progress.View())
	b.WriteString("\n")

	status := string(m.snapshot.Status)
	if m.snapshot.Status == mprogress.StatusPaused {
		status = warningStyle.Render(status)
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Pages: %d/%d | Downloaded: %s | ",
		m.snapshot.Completed,
		m.snapshot.Total,
		humanize.Bytes(uint64(m.received)),
	)))
	b.WriteString(status)
	b.WriteString("\n")
	if m.snapshot.CurrentChapter != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s  %s", m.snapshot.CurrentChapter, m.snapshot.CurrentAsset)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	headline := "Download Complete!"
	if !m.result.Success {
		headline = "Download finished with failures"
	}
	failed := 0
	if m.series != nil {
		failed = len(m.series.FailedChapters())
	}

	text := fmt.Sprintf(
		"%s\n\n"+
			"Chapters: %d (%d failed)\n"+
			"Pages: %d/%d\n"+
			"Size: %s\n"+
			"Time: %s",
		headline,
		len(m.series.Chapters), failed,
		m.snapshot.Completed, m.snapshot.Total,
		humanize.Bytes(uint64(m.received)),
		m.result.Elapsed.Round(100*time.Millisecond),
	)
	if len(m.result.Archives) > 0 {
		text += fmt.Sprintf("\nArchives: %d", len(m.result.Archives))
	}
	b.WriteString(boxStyle.Render(text))
	b.WriteString("\n")

	if failed > 0 {
		b.WriteString("\n")
		for _, ch := range m.series.FailedChapters() {
			b.WriteString(errorStyle.Render("✗ " + ch.Title))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		fmt.Fprintf(&b, "  %s\n", m.err.Error())
	}
	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, entry := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch entry.Level {
		case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
			style = errorStyle
			prefix = "✗"
		case zerolog.WarnLevel:
			style = warningStyle
			prefix = "!"
		case zerolog.InfoLevel:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + entry.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • tab: switch field • ctrl+f: format • esc: quit"
	case StateLoading:
		return "esc: cancel"
	case StateDownloading:
		if m.snapshot.Status == mprogress.StatusPaused {
			return "p: resume • s: stop • q: quit"
		}
		return "p: pause • s: stop • q: quit"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}
