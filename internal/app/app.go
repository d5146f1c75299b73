// Package app wires the configured engine, stages and reports into one run.
package app

import (
	"capdissect/internal/analysis"
	"capdissect/internal/config"
	"capdissect/internal/dissect"
	"capdissect/internal/pipeline"
	"capdissect/internal/reporting"
	"capdissect/internal/tshark"
	"capdissect/internal/tui"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// Run processes cfg.CaptureFile and writes the summary to out. Packet dumps also go to out.
func Run(ctx context.Context, cfg *config.Config, out io.Writer, log *slog.Logger) (*pipeline.Result, error) {
	runID := uuid.NewString()
	log = log.With("run_id", runID)

	src, err := OpenSource(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	opts := pipeline.Options{
		RunID:         runID,
		Capture:       cfg.CaptureFile,
		Wireless:      cfg.Wireless,
		Traffic:       cfg.Traffic,
		Benchmark:     cfg.Benchmarks,
		Dump:          newDumper(cfg, out),
		Verbosity:     level,
		ProgressEvery: cfg.ProgressEvery,
		Logger:        log,
	}

	log.Info("Dumping capture file", "file", cfg.CaptureFile, "engine", cfg.Engine)

	var res *pipeline.Result
	if cfg.TUI {
		res, err = runWithTUI(ctx, opts, src)
	} else {
		res, err = pipeline.New(opts).Run(ctx, src)
	}
	if err != nil {
		return nil, err
	}

	reporting.LogSummary(log, res)
	if err := reporting.WriteText(out, res); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}

	if cfg.HTMLReport != "" {
		path, err := reporting.GenerateSessionReport(res, "html", cfg.HTMLReport)
		if err != nil {
			return nil, fmt.Errorf("html report: %w", err)
		}
		log.Info("wrote session report", "path", path)
	}
	return res, nil
}

// OpenSource starts the configured dissection engine on the capture file.
func OpenSource(ctx context.Context, cfg *config.Config, log *slog.Logger) (pipeline.Source, error) {
	switch cfg.Engine {
	case config.EngineGopacket:
		src, err := dissect.Open(cfg.CaptureFile, dissect.Options{
			DisplayFilter: cfg.Filter,
			Preferences:   cfg.Preferences,
			WLANKeys:      cfg.WLANKeys,
		}, log)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.EngineTshark:
		opts := tshark.Options{
			Binary:        cfg.Tshark,
			WLANKeys:      cfg.WLANKeys,
			DisplayFilter: cfg.Filter,
		}
		for _, p := range cfg.Preferences {
			pref, err := tshark.ParsePreference(p)
			if err != nil {
				return nil, err
			}
			log.Debug("Setting preference", "name", pref.Name, "value", pref.Value)
			opts.Preferences = append(opts.Preferences, pref)
		}
		if len(cfg.WLANKeys) > 0 {
			log.Debug("Using WLAN decryption keys", "count", len(cfg.WLANKeys))
		}
		if cfg.Filter != "" {
			log.Debug("Setting display filter", "filter", cfg.Filter)
		}
		src, err := tshark.Open(ctx, cfg.CaptureFile, opts, log)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return nil, fmt.Errorf("%w: engine %q", config.ErrInvalid, cfg.Engine)
}

func newDumper(cfg *config.Config, out io.Writer) analysis.Dumper {
	if !cfg.ShowPackets {
		return nil
	}
	if cfg.DumpFormat == config.DumpYAML {
		return analysis.NewYAMLDumper(out)
	}
	return analysis.NewTextDumper(out)
}

// runWithTUI runs the pipeline in its own goroutine while bubbletea owns the terminal.
// Snapshots are the only values crossing between the two.
func runWithTUI(ctx context.Context, opts pipeline.Options, src pipeline.Source) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.NewRunModel(opts.Capture, opts.RunID, cancel)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithOutput(os.Stderr))
	opts.Progress = tui.Progress(p)

	type outcome struct {
		res *pipeline.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := pipeline.New(opts).Run(ctx, src)
		p.Send(tui.DoneMsg{Result: res, Err: err})
		done <- outcome{res, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("live view: %w", err)
	}

	cancel()
	o := <-done
	return o.res, o.err
}
