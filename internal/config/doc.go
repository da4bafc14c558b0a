// Package config provides configuration management for manga-downloader.
//
// This package handles:
//   - Loading settings with viper from a config file, MANGADL_* environment
//     variables and command-line flags
//   - Default configuration values
//   - Validation and saving
//
// # Loading
//
//	settings, err := config.Load("", cmd.Flags())
//	if err != nil {
//	    return err
//	}
//	if err := settings.Validate(); err != nil {
//	    return err
//	}
//
// A flag named like a setting key with dashes (--chapter-workers for
// chapter_workers) overrides it when set on the command line.
//
// # Saving Settings
//
//	settings.ChapterWorkers = 3
//	err := settings.Save(config.DefaultPath())
package config
