package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssh-vom/booksearch/internal/config"
)

func newConfigCmd(opts *flags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or persist booksearch configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Write the merged file, environment and flag settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}

			configPath, err := config.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved config to %s\n", configPath)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := config.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), configPath)
			return nil
		},
	})

	return configCmd
}
