package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/handiism/manga-downloader/internal/config"
)

func (c *cli) configCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: "Config prints the settings after applying the config file, MANGADL_* environment\n" +
			"variables and flags. With --save it writes them to the config file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.settings.Validate(); err != nil {
				return err
			}

			t := newTable("Key", "Value")
			for _, f := range c.settings.Fields() {
				t.Row(f.Key, f.Value)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)

			if !save {
				return nil
			}
			path := c.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := c.settings.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write the effective settings to the config file")
	return cmd
}
