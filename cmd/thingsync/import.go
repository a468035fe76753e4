package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thingsync/thingsync/internal/sync"
	"github.com/thingsync/thingsync/internal/things/resolve"
	"github.com/thingsync/thingsync/internal/vault/cache"
)

// newSyncer builds a Syncer from the resolved configuration.
func (a *app) newSyncer(dryRun bool) (sync.Syncer, error) {
	v, err := a.openVault()
	if err != nil {
		return nil, err
	}
	return sync.New(sync.Deps{
		Resolver: resolve.New(resolve.Options{HomeDir: home(), Logger: a.logger}),
		Vault:    v,
		Logger:   a.logger,
		Options: sync.Options{
			DatabasePath: a.cfg.Database.Path,
			SearchDir:    a.cfg.Database.SearchDir,
			Filter:       a.cfg.Filter(),
			Note:         a.cfg.NoteSettings(),
			CachePath:    cache.DefaultPath,
			DryRun:       dryRun,
		},
	}), nil
}

func newImportCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:     "import",
		GroupID: "sync",
		Short:   "Import eligible to-dos into the vault",
		Long: `Import Things to-dos that have not been imported before.

Every to-do that is neither trashed nor tagged with the imported tag is
eligible, whatever its status. --tags, --projects and --areas narrow the set.

Each to-do becomes one Markdown document with YAML frontmatter. Imported
to-dos are recorded in the vault's import cache and never written twice.
A failing to-do is reported and the rest of the batch continues.

Examples:
  thingsync import --vault ~/Notes --folder Things
  thingsync import --tags work,errand --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSyncer(dryRun)
			if err != nil {
				return err
			}
			result, err := s.Import(a.ctx)
			if result != nil {
				printImport(cmd.OutOrStdout(), result)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be written without touching the vault")
	return cmd
}

func newRebuildCacheCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rebuild-cache",
		GroupID: "sync",
		Short:   "Mark every eligible to-do as imported without writing documents",
		Long: `Record every eligible to-do in the import cache without writing documents.

Use this after importing by other means so the next import starts from now.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSyncer(false)
			if err != nil {
				return err
			}
			result, err := s.RebuildCache(a.ctx)
			if result != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, passLine("Cache rebuilt from %s", result.DatabasePath))
				fmt.Fprintln(out, detail("%d added, %d already cached", result.Cached, result.Skipped))
			}
			return err
		},
	}
}

// printImport writes the batch summary.
func printImport(out io.Writer, result *sync.Result) {
	switch {
	case result.Canceled:
		fmt.Fprintln(out, warnLine("Import interrupted after %d of %d to-dos", result.Written, result.Found))
	case result.DryRun:
		fmt.Fprintln(out, infoLine("Dry run: %d document(s) would be written", result.Written))
	case result.Found == 0:
		fmt.Fprintln(out, skipLine("Nothing new to import"))
	default:
		fmt.Fprintln(out, passLine("Imported %d to-do(s) from %s", result.Written, result.DatabasePath))
	}

	for _, p := range result.Paths {
		fmt.Fprintln(out, detail("%s", p))
	}
	if result.Skipped > 0 {
		fmt.Fprintln(out, skipLine(fmt.Sprintf("%d already imported", result.Skipped)))
	}
	if result.Failed > 0 {
		fmt.Fprintln(out, failLine("%d to-do(s) failed", result.Failed))
		for _, e := range result.Errors {
			fmt.Fprintln(out, detail("%s", e))
		}
	}
}
