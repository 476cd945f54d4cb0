// Command tempo-dashboard drives a tempo.Limiter with a synthetic workload
// and renders its live queue/pacing state, finishing with a Markdown run
// summary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/billie-coop/tempo"
	"github.com/billie-coop/tempo/internal/csync"
	"github.com/billie-coop/tempo/internal/workloadconfig"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/glamour/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to a workload config JSON file (default: built-in demo workload)")
	flag.Parse()

	cfg := workloadconfig.Default()
	if *configPath != "" {
		loaded, err := workloadconfig.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type outcome struct {
	mu        sync.Mutex
	admitted  int
	failed    int
	cancelled int
	durations []time.Duration
}

func (o *outcome) record(d time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.admitted++
	o.durations = append(o.durations, d)
	switch {
	case errors.Is(err, tempo.ErrCancelled):
		o.cancelled++
	case err != nil:
		o.failed++
	}
}

func run(cfg workloadconfig.Config) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lim, stop := tempo.Start(tempo.Config{
		MinInterval:   time.Duration(cfg.MinIntervalMs) * time.Millisecond,
		MaxQueued:     cfg.MaxQueued,
		MaxConcurrent: cfg.MaxConcurrent,
	}, tempo.WithLogger(logger))
	defer stop()

	events := csync.NewSlice[event]()
	m := newModel(cfg.Label, cfg.MaxConcurrent, events, lim.Pending)
	program := tea.NewProgram(m, tea.WithAltScreen())

	var result outcome
	group, ctx := errgroup.WithContext(context.Background())

	group.Go(func() error {
		_, err := program.Run()
		return err
	})

	group.Go(func() error {
		defer program.Send(workloadDoneMsg{})
		submitWorkload(ctx, lim, cfg, &result, events, program)
		return nil
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("tempo-dashboard: %w", err)
	}

	return printSummary(cfg, &result)
}

// submitWorkload fires cfg.Mix's jobs concurrently (one goroutine per job,
// matching how independent callers would really use a shared Limiter) and
// forwards each admission/completion to the dashboard program.
func submitWorkload(ctx context.Context, lim *tempo.Limiter, cfg workloadconfig.Config, result *outcome, events *csync.Slice[event], program *tea.Program) {
	var wg sync.WaitGroup
	think := time.Duration(cfg.ThinkTimeMs) * time.Millisecond

	var nextID uint64
	var idMu sync.Mutex
	allocID := func() uint64 {
		idMu.Lock()
		defer idMu.Unlock()
		nextID++
		return nextID
	}

	for _, mix := range cfg.Mix {
		for i := 0; i < mix.Count; i++ {
			wg.Add(1)
			go func(priority int) {
				defer wg.Done()
				id := allocID()

				start := time.Now()
				_, err := tempo.Submit(lim, ctx, priority, func(jobCtx context.Context) (struct{}, error) {
					program.Send(jobStartedMsg{id: id, priority: priority})
					select {
					case <-time.After(think):
						return struct{}{}, nil
					case <-jobCtx.Done():
						return struct{}{}, jobCtx.Err()
					}
				})
				took := time.Since(start)
				result.record(took, err)

				text := fmt.Sprintf("job %d (p%d) done in %s", id, priority, took.Round(time.Millisecond))
				fail := err != nil
				if fail {
					text = fmt.Sprintf("job %d (p%d) failed: %v", id, priority, err)
				}
				events.Append(event{at: time.Now(), text: text, fail: fail})
				program.Send(jobFinishedMsg{id: id, priority: priority, err: err, took: took})
			}(mix.Priority)
		}
	}

	wg.Wait()
}

func printSummary(cfg workloadconfig.Config, o *outcome) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var total time.Duration
	for _, d := range o.durations {
		total += d
	}
	avg := time.Duration(0)
	if len(o.durations) > 0 {
		avg = total / time.Duration(len(o.durations))
	}

	md := fmt.Sprintf(`# %s

| metric | value |
|---|---|
| admitted | %d |
| failed | %d |
| cancelled | %d |
| avg time in system | %s |
`, cfg.Label, o.admitted, o.failed, o.cancelled, avg.Round(time.Millisecond))

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return fmt.Errorf("tempo-dashboard: build renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("tempo-dashboard: render summary: %w", err)
	}
	fmt.Print(out)
	return nil
}
