package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/manga-downloader/internal/config"
	"github.com/handiism/manga-downloader/internal/model"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	settings := config.DefaultSettings()
	settings.DownloadsPath = t.TempDir()
	m, err := NewModel(settings, nil)
	require.NoError(t, err)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_InputKeys(t *testing.T) {
	m := newTestModel(t)
	assert.True(t, m.urlInput.Focused())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, m.urlInput.Focused())
	assert.True(t, m.selInput.Focused())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlF})
	assert.Equal(t, config.FormatCBZ, m.settings.Format)
	assert.Contains(t, m.View(), "Format: cbz")

	// Enter without a URL stays on the input screen.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateInput, m.state)
}

func TestModel_InvalidSelection(t *testing.T) {
	m := newTestModel(t)
	m.urlInput.SetValue("https://example.com/manga/x")
	m.selInput.SetValue("9-3")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateInput, m.state)
	assert.ErrorIs(t, m.err, model.ErrInvalidSelection)
}

func TestModel_SeriesError(t *testing.T) {
	m := newTestModel(t)
	m.state = StateLoading

	m = update(t, m, SeriesMsg{Err: errors.New("boom")})
	assert.Equal(t, StateError, m.state)
	assert.Contains(t, m.View(), "boom")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, StateInput, m.state)
	assert.NoError(t, m.err)
}

func TestModel_LogsAreCapped(t *testing.T) {
	m := newTestModel(t)
	for range maxLogs + 5 {
		m = update(t, m, LogMsg{Entry: LogEntry{Message: "line", Level: zerolog.InfoLevel}})
	}
	assert.Len(t, m.logs, maxLogs)
}

func TestFormatEvent(t *testing.T) {
	line := `{"level":"warn","chapter":"Chapter 2","time":"2024-01-01T00:00:00Z","message":"no pages found","attempt":2}`
	assert.Equal(t, "no pages found attempt=2 chapter=Chapter 2", formatEvent([]byte(line)))
	assert.Equal(t, "plain", formatEvent([]byte("plain\n")))
}

func TestNextFormat(t *testing.T) {
	assert.Equal(t, config.FormatCBZ, nextFormat(config.FormatImages))
	assert.Equal(t, config.FormatEPUB, nextFormat(config.FormatCBZ))
	assert.Equal(t, config.FormatImages, nextFormat(config.FormatEPUB))
	assert.Equal(t, config.FormatImages, nextFormat("zip"))
}
