package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/caarlos0/go-shellwords"
	timeago "github.com/caarlos0/timea.go"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/getclawkit/clawkit/internal/skills"
	"github.com/spf13/cobra"
)

func newSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Search, browse and install agent skills",
	}
	cmd.AddCommand(
		newSkillsSearchCmd(),
		newSkillsBrowseCmd(),
		newSkillsShowCmd(),
		newSkillsSyncCmd(),
		newSkillsInstallCmd(),
	)
	return cmd
}

func openStore() (*skills.Store, error) {
	store, err := skills.Open(config.Database)
	if err != nil {
		return nil, clawError{err, "Could not open the skill catalog."}
	}
	return store, nil
}

func loadIndex(ctx context.Context) (*skills.Index, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close() //nolint:errcheck
	idx, err := store.Index(ctx)
	if err != nil {
		return nil, clawError{err, "Could not load the skill catalog."}
	}
	if idx.Len() == 0 {
		return nil, clawError{
			newUserErrorf("the catalog is empty"),
			fmt.Sprintf("Run %s first.", stderrStyles().InlineCode.Render("clawkit skills sync")),
		}
	}
	return idx, nil
}

func newSkillsSearchCmd() *cobra.Command {
	var (
		page, size int
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the skill catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := loadIndex(cmd.Context())
			if err != nil {
				return err
			}
			pg := idx.Page(strings.Join(args, " "), page, size)
			if asJSON {
				return printJSON(os.Stdout, pg)
			}
			renderPage(os.Stdout, stdoutStyles(), pg)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, stdoutStyles().FlagDesc.Render("Page to show."))
	cmd.Flags().IntVar(&size, "page-size", skills.DefaultPageSize, stdoutStyles().FlagDesc.Render(fmt.Sprintf("Results per page (1-%d).", skills.MaxPageSize)))
	cmd.Flags().BoolVar(&asJSON, "json", false, stdoutStyles().FlagDesc.Render(help["json"]))
	return cmd
}

func renderPage(w io.Writer, s styles, pg skills.Page) {
	if pg.Total == 0 {
		fmt.Fprintln(w, s.Comment.Render("No skills found."))
		return
	}
	for _, sk := range pg.Skills {
		fmt.Fprintln(w, summaryLine(s, sk))
	}
	from := min((pg.Page-1)*pg.PageSize+1, pg.Total)
	to := (pg.Page-1)*pg.PageSize + len(pg.Skills)
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Comment.Render(fmt.Sprintf("%d-%d of %d", from, to, pg.Total)))
}

func summaryLine(s styles, sk skills.Summary) string {
	line := fmt.Sprintf(
		"%s %s %s",
		s.Title.Render(sk.Name),
		s.Timeago.Render(fmt.Sprintf("★ %d", sk.Stars)),
		s.Comment.Render(sk.ID),
	)
	if sk.ShortDesc != "" {
		line += "\n  " + sk.ShortDesc
	}
	return line
}

func newSkillsShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a skill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sk, err := getSkill(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(os.Stdout, skillJSON{sk, sk.Config()})
			}
			return renderSkill(os.Stdout, stdoutStyles(), sk, isOutputTTY())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, stdoutStyles().FlagDesc.Render(help["json"]))
	return cmd
}

// skillJSON is a skill with its clawhub.json fragment.
type skillJSON struct {
	skills.Skill
	Config map[string]map[string]skills.PluginConfig `json:"config"`
}

func getSkill(ctx context.Context, id string) (skills.Skill, error) {
	store, err := openStore()
	if err != nil {
		return skills.Skill{}, err
	}
	defer store.Close() //nolint:errcheck
	sk, err := store.Get(ctx, id)
	if errors.Is(err, skills.ErrNotFound) {
		return sk, clawError{err, fmt.Sprintf("Skill %s does not exist.", stderrStyles().InlineCode.Render(id))}
	}
	if err != nil {
		return sk, clawError{err, "Could not read the skill catalog."}
	}
	return sk, nil
}

func renderSkill(w io.Writer, s styles, sk skills.Skill, markdown bool) error {
	fmt.Fprintf(w, "\n%s %s\n", s.Title.Render(sk.Name), s.Timeago.Render(fmt.Sprintf("★ %d", sk.Stars)))
	by := "by " + sk.Author
	if sk.AuthorURL != "" {
		by += " " + s.Link.Render(sk.AuthorURL)
	}
	if !sk.LastUpdated.IsZero() {
		by += s.Timeago.Render(", updated " + timeago.Of(sk.LastUpdated))
	}
	fmt.Fprintln(w, s.Comment.Render(by))
	if len(sk.Tags) > 0 {
		tags := make([]string, len(sk.Tags))
		for i, t := range sk.Tags {
			tags[i] = s.Badge.Render("#" + t)
		}
		fmt.Fprintln(w, strings.Join(tags, " "))
	}
	fmt.Fprintln(w)

	desc := sk.LongDesc
	if desc == "" {
		desc = sk.ShortDesc
	}
	if markdown && desc != "" {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80)) //nolint:mnd
		if err != nil {
			return clawError{err, "Could not render the description."}
		}
		if desc, err = r.Render(desc); err != nil {
			return clawError{err, "Could not render the description."}
		}
	}
	if desc != "" {
		fmt.Fprintln(w, strings.TrimRight(desc, "\n"))
		fmt.Fprintln(w)
	}
	if sk.Command != "" {
		fmt.Fprintf(w, "Install: %s\n\n", s.InlineCode.Render(sk.Command))
	}
	fmt.Fprintf(w, "Paste this into your %s to enable it:\n\n", s.InlineCode.Render(skills.ConfigFile))
	for _, line := range strings.Split(sk.ConfigSnippet(), "\n") {
		fmt.Fprintln(w, "  "+line)
	}
	fmt.Fprintln(w)
	return nil
}

func newSkillsSyncCmd() *cobra.Command {
	var (
		verify bool
		push   string
	)
	cmd := &cobra.Command{
		Use:   "sync [source]",
		Short: "Load a skills feed into the catalog",
		Long: "Reads the crawler's skills feed from a path, a file:// or an http(s):// URL\n" +
			"and upserts it into the local catalog, or into a remote server with --push.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := config.Feed
			if len(args) == 1 {
				src = args[0]
			}
			logger := newLogger()
			data, err := loadFeed(cmd.Context(), src)
			if err != nil {
				return clawError{err, "Could not load the skills feed."}
			}
			if push != "" {
				return pushSkills(cmd.Context(), logger, push, data)
			}
			return syncSkills(cmd.Context(), logger, data, verify)
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, stdoutStyles().FlagDesc.Render("Compare the catalog with the feed afterwards."))
	cmd.Flags().StringVar(&push, "push", "", stdoutStyles().FlagDesc.Render("Send the feed to the sync endpoint of a server instead."))
	return cmd
}

func syncSkills(ctx context.Context, logger *log.Logger, data []byte, verify bool) error {
	feed, err := skills.ParseFeed(data, time.Now())
	if err != nil {
		return clawError{err, "Invalid skills feed."}
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	logger.Info("seeding", "skills", len(feed.Skills), "skipped", feed.Skipped)
	rep, err := skills.Seed(ctx, store, feed, func(done, total int) {
		logger.Debug("progress", "done", done, "total", total)
	})
	if err != nil {
		return clawError{err, "The sync was interrupted."}
	}
	logReport(logger, rep)

	if !verify {
		return nil
	}
	v, err := skills.Verify(ctx, store, feed)
	if err != nil {
		return clawError{err, "Could not verify the catalog."}
	}
	logger.Info("verified", "feed", v.FeedCount, "store", v.StoreCount)
	if !v.OK() {
		logger.Warn("catalog differs from feed", "missing", v.Missing, "extra", v.Extra)
		return clawError{newUserErrorf("%d missing, %d extra", len(v.Missing), len(v.Extra)), "The catalog does not match the feed."}
	}
	return nil
}

func pushSkills(ctx context.Context, logger *log.Logger, endpoint string, data []byte) error {
	if config.SyncAPIKey == "" {
		return clawError{
			newUserErrorf("no sync key"),
			fmt.Sprintf("Set %s in your settings.", stderrStyles().InlineCode.Render("sync-api-key")),
		}
	}
	logger.Info("pushing", "endpoint", endpoint)
	rep, err := pushFeed(ctx, endpoint, config.SyncAPIKey, data)
	if err != nil {
		return clawError{err, "Could not push the feed."}
	}
	logReport(logger, rep)
	return nil
}

func logReport(logger *log.Logger, rep skills.SeedReport) {
	logger.Info(
		"sync complete",
		"total", rep.Total,
		"created", rep.Created,
		"updated", rep.Updated,
		"skipped", rep.Skipped,
	)
	for _, e := range rep.Errors {
		logger.Error("record failed", "err", e)
	}
}

func newSkillsInstallCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "install <id>",
		Short: "Run the install command of a skill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sk, err := getSkill(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			argv, err := installArgs(sk)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, stderrStyles().Comment.Render("$ "+strings.Join(argv, " ")))
			if dryRun {
				return nil
			}
			c := exec.CommandContext(cmd.Context(), argv[0], argv[1:]...) //nolint:gosec
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return clawError{err, "The install command failed."}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, stdoutStyles().FlagDesc.Render("Print the command without running it."))
	return cmd
}

func installArgs(sk skills.Skill) ([]string, error) {
	argv, err := shellwords.Parse(sk.Command)
	if err != nil {
		return nil, clawError{err, "Could not parse the install command."}
	}
	if len(argv) == 0 {
		return nil, clawError{
			newUserErrorf("skill %s has no install command", sk.ID),
			"Nothing to install.",
		}
	}
	return argv, nil
}
