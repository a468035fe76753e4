package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/thingsync/thingsync/internal/vault/cache"
)

// openCache loads the import cache of the configured vault.
func (a *app) openCache() (*cache.Cache, error) {
	v, err := a.openVault()
	if err != nil {
		return nil, err
	}
	c := cache.New(cache.NewVaultStore(v, cache.DefaultPath), a.logger)
	c.Load()
	return c, nil
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		GroupID: "sync",
		Short:   "Inspect and maintain the import cache",
		Long: `Inspect and maintain the import cache.

The cache lives in the vault at ` + cache.DefaultPath + ` and lists every
to-do that has already been imported.`,
	}

	cmd.AddCommand(newCacheListCmd(a))
	cmd.AddCommand(newCacheClearCmd(a))
	cmd.AddCommand(newCachePruneCmd(a))
	return cmd
}

func newCacheListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List imported to-dos",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if c.Len() > 0 {
				fmt.Fprintln(out, heading("Imported to-dos"))
			}
			for _, id := range c.IDs() {
				e, _ := c.Get(id)
				line := id
				if !e.ImportedAt.IsZero() {
					line += "  " + e.ImportedAt.Local().Format(time.DateTime)
				}
				if e.Path != "" {
					line += "  " + e.Path
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, infoLine("%d imported to-do(s)", c.Len()))
			return nil
		},
	}
}

func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every imported to-do",
		Long: `Forget every imported to-do.

The next import writes every eligible to-do again. Existing documents are
overwritten, not duplicated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			n := c.Len()
			if err := c.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), passLine("Cleared %d cache entries", n))
			return nil
		},
	}
}

func newCachePruneCmd(a *app) *cobra.Command {
	var before string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Forget to-dos imported before a point in time",
		Long: `Forget to-dos imported before a point in time.

--before accepts a date (2024-01-31), an RFC 3339 timestamp or a natural
expression such as "last month" or "3 weeks ago".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff, err := parseWhen(before, time.Now())
			if err != nil {
				return err
			}
			c, err := a.openCache()
			if err != nil {
				return err
			}
			n := c.Prune(cutoff)
			if n > 0 {
				if err := c.Save(); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				passLine("Pruned %d cache entries imported before %s", n, cutoff.Local().Format(time.DateTime)))
			return nil
		},
	}

	cmd.Flags().StringVar(&before, "before", "", "Cutoff time (required)")
	_ = cmd.MarkFlagRequired("before")
	return cmd
}

// parseWhen turns a date, timestamp or natural language expression into a
// time relative to now.
func parseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, now.Location()); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("unrecognized time expression %q", s)
	}
	return r.Time, nil
}
