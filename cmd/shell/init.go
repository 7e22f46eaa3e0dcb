package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/shell/internal/config"
	"github.com/vango-dev/shell/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		dir     string
		force   bool
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default shell.json",
		Long: `Write a shell.json with default values to the given directory.

Examples:
  shell init
  shell init --dir ./deploy --base-url https://app.example.com/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.Exists(dir) && !force {
				return errors.New("E051").
					WithDetail("Refusing to overwrite " + filepath.Join(dir, config.ConfigFileName))
			}

			cfg := config.New()
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			path := filepath.Join(dir, config.ConfigFileName)
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to write shell.json to")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing shell.json")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Application base URL")

	return cmd
}
