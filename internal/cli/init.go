package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pulseline/pulseline/internal/config"
	"github.com/pulseline/pulseline/internal/prompt"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write the default configuration to the config directory. Per-category
provider commands are left empty; set them to the external commands that
emit each metric (JSON on stdout, or a bare dollar amount for cost).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigFile()

		if _, err := os.Stat(path); err == nil {
			overwrite, err := prompt.Default.Confirm(prompt.ConfirmConfig{
				Title:       "Config file already exists. Overwrite?",
				Description: path,
			})
			if err != nil {
				return err
			}
			if !overwrite {
				outln("Keeping existing config.")
				return nil
			}
		}

		if err := config.Save(config.DefaultConfig(), path); err != nil {
			return err
		}
		if _, err := config.Reload(); err != nil {
			return err
		}
		out("Wrote %s\n", path)
		return nil
	},
}
