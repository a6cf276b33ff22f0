package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Load the configuration file, apply environment overrides and
defaults, and print the result as YAML. Credentials are redacted.`,
	RunE: showConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	redacted := *cfg
	if redacted.NASA.APIKey != "" {
		redacted.NASA.APIKey = "[redacted]"
	}

	if redacted.Database.Postgres.Password != "" {
		redacted.Database.Postgres.Password = "[redacted]"
	}

	if redacted.Archive.SecretAccessKey != "" {
		redacted.Archive.SecretAccessKey = "[redacted]"
	}

	if redacted.Server.AuthToken != "" {
		redacted.Server.AuthToken = "[redacted]"
	}

	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	fmt.Print(string(out))

	return nil
}
