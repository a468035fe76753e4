package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thingsync/thingsync/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: "setup",
		Short:   "Create and show the configuration",
	}
	cmd.AddCommand(newConfigInitCmd(a))
	cmd.AddCommand(newConfigShowCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var (
		interactive bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a config file",
		Annotations: map[string]string{annotationCreatesConfig: "true"},
		Long: `Write a config file holding the current settings.

Flags and environment overrides given on this invocation are saved too.
With --interactive, a form asks for the vault and filter settings first.

Examples:
  thingsync config init --vault ~/Notes --folder Things
  thingsync config init --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgFile
			if path == "" {
				path = config.DefaultFile()
			}
			if path == "" {
				return fmt.Errorf("cannot determine config location (use --config)")
			}

			cfg := a.cfg
			if interactive {
				if err := config.Prompt(cfg); err != nil {
					if errors.Is(err, config.ErrAborted) {
						fmt.Fprintln(cmd.OutOrStdout(), skipLine("Aborted, nothing written"))
						return nil
					}
					return err
				}
			}

			if err := config.WriteFile(path, cfg, force); err != nil {
				if errors.Is(err, config.ErrExists) {
					return fmt.Errorf("%w: %s (use --force to overwrite)", err, path)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), passLine("Wrote %s", path))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Ask for settings in a form")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Encode(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
