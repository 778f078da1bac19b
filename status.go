package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	timeago "github.com/caarlos0/timea.go"
	"github.com/charmbracelet/log"
	"github.com/getclawkit/clawkit/internal/cache"
	"github.com/getclawkit/clawkit/internal/status"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var (
		asJSON, noCache bool
		timeout         time.Duration
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the OpenClaw services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checker, err := newStatusChecker(nil, !noCache)
			if err != nil {
				return err
			}
			checker.Timeout = timeout
			type result struct {
				snap status.Snapshot
				err  error
			}
			res, err := waitFor(cmd.Context(), " Checking services", func(ctx context.Context) result {
				snap, err := checker.Snapshot(ctx)
				return result{snap, err}
			})
			if err != nil {
				return err
			}
			if res.err != nil {
				return clawError{res.err, "Could not check the services."}
			}
			if asJSON {
				return printJSON(os.Stdout, res.snap)
			}
			renderStatus(os.Stdout, stdoutStyles(), res.snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, stdoutStyles().FlagDesc.Render(help["json"]))
	cmd.Flags().Var(newDurationFlag(status.DefaultTimeout, &timeout), "timeout", stdoutStyles().FlagDesc.Render("Timeout of each service check."))
	cmd.Flags().BoolVar(&noCache, "no-cache", false, stdoutStyles().FlagDesc.Render("Check again even if a recent snapshot exists."))
	return cmd
}

func newStatusChecker(logger *log.Logger, cached bool) (*status.Checker, error) {
	var c *cache.Expiring[status.Snapshot]
	if cached {
		var err error
		c, err = cache.NewExpiring[status.Snapshot](config.CachePath, cache.StatusCache)
		if err != nil {
			return nil, clawError{err, "Could not open the status cache."}
		}
	}
	checker := status.New(c)
	checker.TTL = config.StatusTTL
	checker.Logger = logger
	return checker, nil
}

var stateIcons = map[status.State]string{
	status.Operational: "●",
	status.Degraded:    "◐",
	status.Down:        "○",
}

func renderStatus(w io.Writer, s styles, snap status.Snapshot) {
	fmt.Fprintln(w)
	if snap.Operational() {
		fmt.Fprintln(w, "  "+s.Success.Render("All systems operational"))
	} else {
		fmt.Fprintln(w, "  "+s.Failure.Render("Some systems are having problems"))
	}
	fmt.Fprintln(w)

	width := 0
	for _, svc := range snap.Services {
		width = max(width, len(svc.Name))
	}
	for _, svc := range snap.Services {
		st := s.Success
		switch svc.Status {
		case status.Degraded:
			st = s.Warning
		case status.Down:
			st = s.Failure
		}
		line := fmt.Sprintf("  %s %-*s %-11s", st.Render(stateIcons[svc.Status]), width, svc.Name, st.Render(string(svc.Status)))
		if svc.Latency > 0 {
			line += " " + s.Comment.Render(fmt.Sprintf("%dms", svc.Latency))
		}
		if svc.Message != "" {
			line += " " + s.Comment.Render(svc.Message)
		}
		fmt.Fprintln(w, line)
	}

	updated := "updated " + timeago.Of(snap.UpdatedAt)
	if snap.Meta.Cached {
		updated += " (cached)"
	}
	fmt.Fprintf(w, "\n  %s\n\n", s.Timeago.Render(updated))
}
