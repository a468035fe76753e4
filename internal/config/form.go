package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/thingsync/thingsync/internal/things/db"
)

// ErrAborted is returned by Prompt when the user cancels the form.
var ErrAborted = huh.ErrUserAborted

// Prompt asks for the common settings interactively, starting from the
// values in cfg, and updates cfg in place.
func Prompt(cfg *Config) error {
	var (
		vaultRoot   = cfg.Vault.Root
		folder      = cfg.Vault.Folder
		dbPath      = cfg.Database.Path
		searchDir   = cfg.Database.SearchDir
		tagsInput   = strings.Join(cfg.Filters.Tags, ", ")
		projects    = strings.Join(cfg.Filters.Projects, ", ")
		areas       = strings.Join(cfg.Filters.Areas, ", ")
		customTags  = strings.Join(cfg.Tags.Custom, ", ")
		withProject = cfg.Tags.IncludeProject
		withArea    = cfg.Tags.IncludeArea
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Vault").
				Description("Directory the Markdown documents are written into (required)").
				Placeholder("e.g., ~/Notes").
				Value(&vaultRoot).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("vault is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Folder").
				Description("Folder inside the vault (optional, empty = vault root)").
				Placeholder("e.g., Things/Logbook").
				Value(&folder),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("Database").
				Description("Path to main.sqlite (optional, found automatically)").
				Placeholder("~/Library/Group Containers/.../main.sqlite").
				Value(&dbPath),

			huh.NewInput().
				Title("Search directory").
				Description("Directory holding ThingsData-* folders (optional)").
				Value(&searchDir),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("Tags").
				Description("Only import tasks with one of these tags (comma-separated, optional)").
				Value(&tagsInput),

			huh.NewInput().
				Title("Projects").
				Description("Only import tasks in these projects (comma-separated, optional)").
				Value(&projects),

			huh.NewInput().
				Title("Areas").
				Description("Only import tasks in these areas (comma-separated, optional)").
				Value(&areas),
		),

		huh.NewGroup(
			huh.NewConfirm().
				Title("Tag documents with the project?").
				Value(&withProject),

			huh.NewConfirm().
				Title("Tag documents with the area?").
				Value(&withArea),

			huh.NewInput().
				Title("Extra tags").
				Description("Added to every document (comma-separated, optional)").
				Value(&customTags),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Vault.Root = strings.TrimSpace(vaultRoot)
	cfg.Vault.Folder = strings.TrimSpace(folder)
	cfg.Database.Path = strings.TrimSpace(dbPath)
	cfg.Database.SearchDir = strings.TrimSpace(searchDir)
	cfg.Filters.Tags = db.NormalizeList(tagsInput)
	cfg.Filters.Projects = db.NormalizeList(projects)
	cfg.Filters.Areas = db.NormalizeList(areas)
	cfg.Tags.IncludeProject = withProject
	cfg.Tags.IncludeArea = withArea
	cfg.Tags.Custom = db.NormalizeList(customTags)
	return nil
}
