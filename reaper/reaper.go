// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielhkuo/oxpoll/models"
	"github.com/danielhkuo/oxpoll/store"
)

var (
	sweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oxpoll",
		Name:      "reaper_sweeps_total",
		Help:      "Idle sweeps run, by outcome.",
	}, []string{"outcome"})

	pollsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oxpoll",
		Name:      "reaper_polls_deactivated_total",
		Help:      "Polls deactivated for inactivity.",
	})
)

// Result describes one sweep
type Result struct {
	Cutoff      time.Time
	Selected    []models.Poll
	Deactivated int64
	DryRun      bool
}

// Reaper deactivates polls whose owner has not touched them within the
// threshold. It never broadcasts; viewers notice on their next interaction.
type Reaper struct {
	store     *store.Store
	threshold time.Duration
	interval  time.Duration
}

// New builds a Reaper. Non-positive durations fall back to 30 minutes
// and one minute.
func New(s *store.Store, threshold, interval time.Duration) *Reaper {
	if threshold <= 0 {
		threshold = 30 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{store: s, threshold: threshold, interval: interval}
}

// Run sweeps on every tick until ctx is cancelled. A failed sweep is
// logged and tried again on the next tick.
func (r *Reaper) Run(ctx context.Context) {
	slog.Info("idle reaper started", "threshold", r.threshold, "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("idle reaper stopped")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx, false); err != nil {
				slog.Error("idle sweep failed", "error", err)
			}
		}
	}
}

// Sweep selects every active poll idle past the threshold. Unless dryRun is
// set, it ends them all in one bulk update.
func (r *Reaper) Sweep(ctx context.Context, dryRun bool) (Result, error) {
	res := Result{
		Cutoff: r.store.Now().Add(-r.threshold),
		DryRun: dryRun,
	}

	selected, err := r.store.IdlePolls(ctx, res.Cutoff)
	if err != nil {
		sweepsTotal.WithLabelValues("error").Inc()
		return res, fmt.Errorf("failed to select idle polls: %w", err)
	}
	res.Selected = selected

	for _, p := range selected {
		slog.Debug("idle poll",
			"poll_id", p.ID,
			"short_code", p.ShortCode,
			"last_activity", humanize.Time(p.LastActivity),
			"dry_run", dryRun,
		)
	}

	if dryRun || len(selected) == 0 {
		sweepsTotal.WithLabelValues("noop").Inc()
		return res, nil
	}

	n, err := r.store.DeactivateIdle(ctx, res.Cutoff)
	if err != nil {
		sweepsTotal.WithLabelValues("error").Inc()
		return res, err
	}
	res.Deactivated = n

	sweepsTotal.WithLabelValues("deactivated").Inc()
	pollsReaped.Add(float64(n))
	slog.Info("idle polls deactivated", "count", humanize.Comma(n), "threshold", r.threshold)

	return res, nil
}
