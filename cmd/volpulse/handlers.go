package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/danhoran/volpulse/internal/config"
	"github.com/danhoran/volpulse/internal/scheduler"
	"github.com/danhoran/volpulse/internal/store"
	"github.com/danhoran/volpulse/pkg/alert"
	"github.com/danhoran/volpulse/pkg/dashboard"
	"github.com/danhoran/volpulse/pkg/platform"
	"github.com/danhoran/volpulse/pkg/server"
	"github.com/rs/zerolog"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

func buildBuilder(cfg *config.Config, log zerolog.Logger) *dashboard.Builder {
	api := platform.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.ParseTimeout())

	var ann dashboard.Announcements
	if cfg.Announcements.Enabled && len(cfg.Announcements.Feeds) > 0 {
		feeds := make([]platform.Feed, len(cfg.Announcements.Feeds))
		for i, f := range cfg.Announcements.Feeds {
			feeds[i] = platform.Feed{Name: f.Name, URL: f.URL}
		}
		ann = platform.NewAnnouncements(feeds, log)
	}

	return dashboard.NewBuilder(api, ann, log)
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runDashboard(jsonOutput bool, owner string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger()
	builder := buildBuilder(cfg, log)

	scope := dashboard.Scope{OwnerID: cfg.Scope.OwnerID}
	if owner != "" {
		scope = dashboard.Scope{OwnerID: owner}
	}

	vm, err := builder.Build(context.Background(), scope)
	if err != nil {
		return fmt.Errorf("build dashboard: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(vm)
	}

	return printDashboard(vm)
}

func printDashboard(vm *dashboard.ViewModel) error {
	s := vm.Summary
	fmt.Printf("events: %d (%d upcoming, %d pending)  posts: %d (%d today)  users: %d (%d volunteers, %d active)\n\n",
		s.TotalEvents, s.UpcomingEvents, s.PendingEvents,
		s.TotalPosts, s.NewPostsToday,
		s.TotalUsers, s.TotalVolunteers, s.ActiveUsers)

	if len(vm.PendingEvents) > 0 {
		fmt.Println("awaiting approval:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TITLE\tDATE\tLOCATION")
		for _, p := range vm.PendingEvents {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Title, p.Date.Format("2006-01-02"), p.Location)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Println()
	}

	fmt.Println("hottest discussions:")
	if len(vm.TopDiscussions) == 0 {
		fmt.Println("  (no posts in the last 30 days)")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "HOT\tWHERE\tPOST\tAUTHOR\tDATE")
		for _, d := range vm.TopDiscussions {
			where := d.Title
			if d.IsGlobal {
				where = "[global] " + where
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				d.HotScore, where, d.LatestPostTitle, d.LatestPostAuthor,
				d.LatestPostDate.Format("2006-01-02"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	fmt.Println()

	fmt.Printf("most attractive events (max score %d):\n", vm.MaxAttractiveScore)
	if len(vm.TopAttractiveEvents) == 0 {
		fmt.Println("  (no approved events)")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tTITLE\tVOLUNTEERS\tPOSTS\tDATE")
		for _, e := range vm.TopAttractiveEvents {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n",
				e.Score, e.Title, e.TotalVolunteers, e.TotalPosts,
				e.Date.Format("2006-01-02"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	return nil
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	log := newLogger()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	builder := buildBuilder(cfg, log)
	scope := dashboard.Scope{OwnerID: cfg.Scope.OwnerID}

	srv := server.New(builder, db, scope, log, port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	log := newLogger()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	builder := buildBuilder(cfg, log)
	alertMgr := buildAlertManager(cfg)
	scope := dashboard.Scope{OwnerID: cfg.Scope.OwnerID}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(builder, db, alertMgr, scope,
		cfg.Schedule.ParseRefreshInterval(),
		cfg.Alerts.MinHotScore,
		log,
	)

	// Refresh loop in the background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("scheduler error")
		}
	}()

	srv := server.New(builder, db, scope, log, port)
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runHistory(jsonOutput bool, limit int, scope string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(context.Background(), store.ListOpts{
		Scope: scope,
		Limit: limit,
	})
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("no archived runs (start the daemon: volpulse run)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GENERATED\tSCOPE\tEVENTS\tPENDING\tPOSTS\tTOP HOT\tMAX SCORE\tRUN ID")
	for _, r := range runs {
		scopeCol := r.Scope
		if scopeCol == "" {
			scopeCol = "all"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.GeneratedAt.Format(time.RFC3339), scopeCol,
			r.TotalEvents, r.PendingEvents, r.TotalPosts,
			r.TopHotScore, r.MaxAttractiveScore, r.ID)
	}
	return w.Flush()
}
