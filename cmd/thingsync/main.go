package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thingsync/thingsync/internal/config"
	"github.com/thingsync/thingsync/internal/logging"
	"github.com/thingsync/thingsync/internal/things/resolve"
	"github.com/thingsync/thingsync/internal/ui"
	"github.com/thingsync/thingsync/internal/vault"
)

// Version is set at build time.
var Version = "dev"

// annotationCreatesConfig marks commands that may name a config file that
// does not exist yet.
const annotationCreatesConfig = "creates-config"

// app carries the state shared by every command of one invocation.
type app struct {
	cfgFile string
	verbose bool

	viper  *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer

	ctx    context.Context
	cancel context.CancelFunc
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	a := &app{viper: config.New()}

	rootCmd := &cobra.Command{
		Use:           "thingsync",
		Short:         "thingsync - Things 3 to Markdown vault import",
		Long:          `Copy Things 3 to-dos (not trashed, not tagged imported) into one Markdown document each, exactly once.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/thingsync/config.toml)")
	flags.String("db", "", "Path to the Things main.sqlite (default: auto-discover)")
	flags.String("search-dir", "", "Directory holding ThingsData-* folders")
	flags.String("vault", "", "Vault directory documents are written into")
	flags.String("folder", "", "Folder inside the vault (default: vault root)")
	flags.String("tags", "", "Only tasks with one of these tags (comma-separated)")
	flags.String("projects", "", "Only tasks in these projects (comma-separated)")
	flags.String("areas", "", "Only tasks in these areas (comma-separated)")
	flags.String("log-file", "", "Also write logs to this file (rotated)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose/debug output")

	for key, name := range map[string]string{
		config.KeyDatabasePath:   "db",
		config.KeySearchDir:      "search-dir",
		config.KeyVaultRoot:      "vault",
		config.KeyVaultFolder:    "folder",
		config.KeyFilterTags:     "tags",
		config.KeyFilterProjects: "projects",
		config.KeyFilterAreas:    "areas",
		config.KeyLogFile:        "log-file",
	} {
		_ = a.viper.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddGroup(&cobra.Group{ID: "sync", Title: "Import:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})

	rootCmd.AddCommand(newImportCmd(a))
	rootCmd.AddCommand(newRebuildCacheCmd(a))
	rootCmd.AddCommand(newCacheCmd(a))
	rootCmd.AddCommand(newLocateCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// setup loads configuration, logging and the signal-aware context.
func (a *app) setup(cmd *cobra.Command) error {
	cfgFile := a.cfgFile
	if cmd.Annotations[annotationCreatesConfig] != "" && cfgFile != "" {
		if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
			cfgFile = ""
		}
	}
	if _, err := config.Read(a.viper, cfgFile); err != nil {
		return err
	}
	a.cfg = config.Resolve(a.viper)

	logger, closer, err := logging.New(logging.Options{
		Level:   a.cfg.Log.Level,
		File:    a.cfg.Log.File,
		Verbose: a.verbose,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.logger = logger
	a.closer = closer

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	a.ctx, a.cancel = signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)

	ui.Init()
	return nil
}

func (a *app) teardown() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// home returns the user's home directory, or "".
func home() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return h
}

// openVault opens the configured vault root.
func (a *app) openVault() (*vault.Vault, error) {
	root := a.cfg.Vault.Root
	if root == "" {
		return nil, fmt.Errorf("vault root not configured (use --vault or set vault.root)")
	}
	return vault.Open(resolve.ExpandHome(root, home()))
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, ui.FailLine(err.Error()))
		os.Exit(1)
	}
}
