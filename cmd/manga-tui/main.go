package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/handiism/manga-downloader/internal/config"
	"github.com/handiism/manga-downloader/internal/library"
	"github.com/handiism/manga-downloader/internal/tui"
)

func main() {
	flags := pflag.NewFlagSet("manga-tui", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "config file (default "+config.DefaultPath()+")")
	config.RegisterFlags(flags)
	flags.Parse(os.Args[1:])

	settings, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	var store *library.Store
	if settings.LibraryPath != "" {
		if store, err = library.Open(settings.LibraryPath); err != nil {
			fmt.Fprintf(os.Stderr, "Run history disabled: %v\n", err)
		} else {
			defer store.Close()
		}
	}

	if err := tui.Run(settings, store); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
