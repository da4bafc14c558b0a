package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/handiism/manga-downloader/internal/app"
	"github.com/handiism/manga-downloader/internal/config"
	"github.com/handiism/manga-downloader/internal/library"
	"github.com/handiism/manga-downloader/internal/logging"
)

// cli holds the state shared by all commands, filled in before any of
// them runs.
type cli struct {
	configPath string
	verbose    bool

	settings *config.Settings
	log      zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "manga-dl",
		Short:         "Download manga chapters",
		Long:          "Download manga series chapter by chapter as page images, CBZ archives or an EPUB book.\n\nFor interactive mode, use: manga-tui",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(c.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if c.verbose {
				settings.LogLevel = "debug"
			}
			c.settings = settings
			c.log = logging.New(os.Stderr, settings.LogLevel, true)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "show debug output")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		c.downloadCmd(),
		c.chaptersCmd(),
		c.historyCmd(),
		c.configCmd(),
	)
	return root
}

// session builds a Session recording into the run history. The returned
// func releases the history.
func (c *cli) session() (*app.Session, func(), error) {
	store := c.openStore()
	session, err := app.NewSession(c.settings, store, c.log)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}
	return session, func() {
		if store != nil {
			store.Close()
		}
	}, nil
}

// openStore opens the run history. History is optional: failures are
// logged and nil is returned.
func (c *cli) openStore() *library.Store {
	if c.settings.LibraryPath == "" {
		return nil
	}
	store, err := library.Open(c.settings.LibraryPath)
	if err != nil {
		c.log.Warn().Err(err).Str("path", c.settings.LibraryPath).Msg("run history disabled")
		return nil
	}
	return store
}

// signalContext is cancelled on the first interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted, stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

var (
	accent      = lipgloss.Color("99")
	headerStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).Align(lipgloss.Center)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failStyle   = cellStyle.Foreground(lipgloss.Color("#FF6B6B"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8B500"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(accent)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}
