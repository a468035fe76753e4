package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/thingsync/thingsync/internal/sync"
	"github.com/thingsync/thingsync/internal/things/resolve"
)

func newLocateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "locate",
		GroupID: "setup",
		Short:   "Show which Things database would be read",
		Long: `Show which Things database would be read.

The configured path is tried first, then the newest ThingsData-* folder in
the search directory, then the Things group container.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := sync.New(sync.Deps{
				Resolver: resolve.New(resolve.Options{HomeDir: home(), Logger: a.logger}),
				Logger:   a.logger,
				Options: sync.Options{
					DatabasePath: a.cfg.Database.Path,
					SearchDir:    a.cfg.Database.SearchDir,
				},
			})
			loc, err := s.Locate(a.ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, heading("Things database"))
			fmt.Fprintln(out, passLine("%s", loc.Path))
			fmt.Fprintln(out, detail("source: %s", loc.Source))
			fmt.Fprintln(out, detail("modified: %s", loc.ModTime.Local().Format(time.DateTime)))
			fmt.Fprintln(out, detail("to-dos: %d", loc.Tasks))
			return nil
		},
	}
}
