package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/allapse/feel/internal/audio"
	"github.com/allapse/feel/internal/cli"
	"github.com/allapse/feel/internal/config"
	"github.com/allapse/feel/internal/locale"
	"github.com/allapse/feel/internal/logging"
	"github.com/allapse/feel/internal/orientation"
	"github.com/allapse/feel/internal/processor"
	"github.com/allapse/feel/internal/server"
	"github.com/allapse/feel/internal/session"
	"github.com/allapse/feel/internal/ui"
)

var (
	version = "0.0.1"
)

// statusInterval is how often renderer counts reach the UI
const statusInterval = time.Second

// CLI defines the command-line interface
type CLI struct {
	Config string `short:"c" type:"existingfile" help:"Path to TOML config file (optional)"`
	Logs   bool   `help:"Save a session report"`
	FPS    int    `help:"Frames per second, overriding the config"`

	Watch   WatchCmd   `cmd:"" help:"Drive controls from a track or the synth in the terminal"`
	Serve   ServeCmd   `cmd:"" help:"Stream controls to renderers over WebSocket"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// WatchCmd runs a session with the terminal UI only
type WatchCmd struct {
	Track string `arg:"" optional:"" type:"existingfile" help:"MP3 track to loop (synth when omitted)"`
}

// ServeCmd runs a session and streams frames to renderers
type ServeCmd struct {
	Track    string `arg:"" optional:"" type:"existingfile" help:"MP3 track to loop (synth when omitted)"`
	Addr     string `help:"Listen address, overriding the config"`
	Headless bool   `help:"Run without the terminal UI"`
}

// VersionCmd prints the version
type VersionCmd struct{}

// pipeline is one wired session
type pipeline struct {
	runner  *session.Runner
	tracker *orientation.Tracker
	source  ui.SourceMsg
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("feel"),
		kong.Description("Audio-reactive controls for live visuals"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	command := strings.Fields(ctx.Command())[0]
	if command == "version" {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	cfg, err := loadConfig(cliArgs)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	// Open debug log file
	debugLog, err := os.Create("feel-debug.log")
	if err == nil {
		defer debugLog.Close()
		ui.SetDebugLog(debugLog)
	}
	log := func(format string, args ...interface{}) {
		if debugLog != nil {
			fmt.Fprintf(debugLog, format+"\n", args...)
		}
	}

	track := cliArgs.Watch.Track
	serve := command == "serve"
	headless := false
	if serve {
		track = cliArgs.Serve.Track
		headless = cliArgs.Serve.Headless
	}

	start := time.Now()
	pl, err := buildPipeline(cfg, track, log)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	var hub *server.Hub
	if serve {
		hub = server.NewHub(server.Options{
			Bindings: pl.runner.Bindings(),
			Tracker:  pl.tracker,
			Commands: pl.runner.Send,
			Logf:     log,
		})
	}

	if err := run(cfg, pl, hub, headless, log); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	summary := pl.runner.Stats().Summary()
	cli.PrintInfo("Frames", fmt.Sprintf("%d over %s", summary.Frames, summary.Elapsed.Round(time.Second)))
	if summary.LockedFrames > 0 {
		cli.PrintInfo("Tempo", fmt.Sprintf("%.0f BPM", summary.BPM))
	}

	// Generate session report if --logs flag is set
	if cliArgs.Logs {
		data := logging.ReportData{
			Mode:           command,
			Source:         track,
			SourceDuration: pl.source.Duration,
			SynthBPM:       pl.source.BPM,
			StartTime:      start,
			EndTime:        time.Now(),
			FPS:            cfg.FPS,
			FFTSize:        cfg.Analyser.FFTSize,
			Smoothing:      cfg.Analyser.Smoothing,
			Locale:         locale.Detect(),
			Bindings:       pl.runner.Bindings(),
			Summary:        summary,
		}
		if hub != nil {
			data.Addr = cfg.Server.Addr
			data.Dropped = int(hub.Dropped())
		}
		path, err := logging.GenerateReport(data)
		if err != nil {
			log("[MAIN] Failed to generate report: %v", err)
			cli.PrintError(err.Error())
			os.Exit(1)
		}
		cli.PrintInfo("Report", path)
	}
}

// loadConfig reads the config file, if any, and applies flag overrides
func loadConfig(args *CLI) (*config.Config, error) {
	cfg := config.Default()
	if args.Config != "" {
		loaded, err := config.Load(args.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if args.FPS != 0 {
		cfg.FPS = args.FPS
	}
	if args.Serve.Addr != "" {
		cfg.Server.Addr = args.Serve.Addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildPipeline wires the signal, analyser, tracker and engine into a runner
func buildPipeline(cfg *config.Config, trackPath string, log session.Logf) (*pipeline, error) {
	analyser, err := audio.NewAnalyser(cfg.Analyser.FFTSize, cfg.Analyser.Smoothing)
	if err != nil {
		return nil, err
	}

	var (
		sig      audio.Signal
		progress func(time.Duration) float64
		src      ui.SourceMsg
	)
	if trackPath != "" {
		track, meta, err := audio.OpenTrack(trackPath)
		if err != nil {
			return nil, err
		}
		log("[MAIN] Opened %s: %d Hz, %d channels, %.1fs", trackPath, meta.SampleRate, meta.Channels, meta.Duration)
		sig = track
		progress = track.Progress
		src = ui.SourceMsg{Name: filepath.Base(trackPath), Duration: track.Duration()}
	} else {
		synth := audio.NewSynth(cfg.Synth.BPM)
		log("[MAIN] No track, using synth at %.0f BPM", synth.BPM)
		sig = synth
		src = ui.SourceMsg{BPM: synth.BPM}
	}

	tracker := orientation.NewTracker(cfg.Gyro.Range)
	if cfg.Gyro.StartLocked {
		tracker.Lock()
	}
	engine, err := processor.NewEngine(cfg.Controls, processor.EngineOptions{
		Bins: cfg.Bins(),
		Tilt: tracker,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	runner := session.NewRunner(engine, audio.NewSource(sig, analyser), tracker, session.Options{
		FPS:      cfg.FPS,
		Progress: progress,
		Logf:     log,
	})
	return &pipeline{runner: runner, tracker: tracker, source: src}, nil
}

// run drives the runner, the optional hub and the optional UI until the UI
// quits, a signal arrives or one of them fails
func run(cfg *config.Config, pl *pipeline, hub *server.Hub, headless bool, log session.Logf) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	var (
		p    *tea.Program
		feed *ui.Feed
	)
	if !headless {
		model := ui.NewModel(pl.runner.Bindings(), pl.runner.Send)
		p = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
		feed = ui.NewFeed()
		g.Go(func() error {
			feed.Run(gctx, p.Send)
			log("[MAIN] UI skipped %d frames", feed.Dropped())
			return nil
		})
	}

	if hub != nil {
		g.Go(func() error {
			return hub.ListenAndServe(gctx, cfg.Server.Addr)
		})
		if p != nil {
			g.Go(func() error {
				reportClients(gctx, p, hub, cfg.Server.Addr)
				return nil
			})
		} else {
			cli.PrintInfo("Serving", fmt.Sprintf("ws://%s/ws", cfg.Server.Addr))
		}
	}

	g.Go(func() error {
		err := pl.runner.Run(gctx, func(u session.Update) {
			if hub != nil {
				hub.Broadcast(u)
			}
			if feed != nil {
				feed.Offer(u)
			}
		})
		if err != nil {
			log("[MAIN] Runner failed: %v", err)
			if p != nil {
				p.Send(ui.DoneMsg{Err: err})
			}
		}
		return err
	})

	if p != nil {
		g.Go(func() error {
			defer cancel()

			log("[MAIN] Sending SourceMsg")
			go p.Send(pl.source)

			_, err := p.Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("UI error: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// reportClients keeps the UI's renderer count current
func reportClients(ctx context.Context, p *tea.Program, hub *server.Hub, addr string) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		p.Send(ui.ServerMsg{Addr: addr, Clients: hub.Clients()})
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
