package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/pinchboard/internal/app"
	"github.com/ayusman/pinchboard/internal/capture"
	"github.com/ayusman/pinchboard/internal/config"
	"github.com/ayusman/pinchboard/internal/detector"
	"github.com/ayusman/pinchboard/internal/engine"
	"github.com/ayusman/pinchboard/internal/journal"
	"github.com/ayusman/pinchboard/internal/logging"
	"github.com/ayusman/pinchboard/internal/plugin"
	"github.com/ayusman/pinchboard/internal/replay"
	"github.com/ayusman/pinchboard/internal/server"
	"github.com/ayusman/pinchboard/internal/store"
	"github.com/ayusman/pinchboard/internal/tracker"
	"github.com/ayusman/pinchboard/internal/tray"
)

type options struct {
	configPath string
	addr       string
	camera     int
	dbPath     string
	logLevel   string
	staticDir  string
	noStore    bool
	withTray   bool
	replay     string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options

	flagSet := pflag.NewFlagSet("pinchboard", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", filepath.Join(config.DataDir(), "pinchboard.toml"), "path to the TOML or YAML config file")
	flagSet.StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides server.addr)")
	flagSet.IntVar(&opts.camera, "camera", -1, "camera device index (overrides camera.device_id)")
	flagSet.StringVar(&opts.dbPath, "db", "", "session journal database (overrides store.path)")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level (overrides log.level)")
	flagSet.StringVar(&opts.staticDir, "static", "", "directory of web assets to serve at /")
	flagSet.BoolVar(&opts.noStore, "no-store", false, "do not record sessions")
	flagSet.BoolVar(&opts.withTray, "tray", false, "show the system tray menu")
	flagSet.StringVar(&opts.replay, "replay", "", "loop a recorded hand trace (file or built-in name) instead of the camera")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, &opts)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	log := logger.WithField("component", "main")
	log.WithField("config", opts.configPath).Info("starting pinchboard")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if cfg.Store.Enabled {
		st, err = store.New(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		log.WithField("path", cfg.Store.Path).Info("session journal enabled")
	}

	hands, runHands, err := newHandSource(cfg, opts.replay, logger)
	if err != nil {
		return err
	}

	appCfg := app.Config{
		Width:          cfg.Canvas.Width,
		Height:         cfg.Canvas.Height,
		PinchThreshold: cfg.Gesture.PinchThreshold,
		Engine: engine.Config{
			DrawFloor:   cfg.Gesture.DrawFloor,
			StrokeWidth: cfg.Gesture.StrokeWidth,
			EraseRadius: cfg.Gesture.EraseRadius,
			Cooldown:    cfg.Gesture.Cooldown(),
		},
		RenderFPS: cfg.Render.FPS,
		Log:       logger,
	}
	if st != nil {
		appCfg.Settings = st.Settings()
	}
	board, err := app.New(appCfg, hands)
	if err != nil {
		return err
	}
	defer board.Close()

	hub := server.NewHub(logger)
	board.Subscribe(hub.Broadcast)

	g, ctx := errgroup.WithContext(ctx)

	if st != nil {
		rec := journal.NewRecorder(st, journal.DefaultBuffer, logger)
		sessionID, err := rec.Start(cfg.Canvas.Width, cfg.Canvas.Height, time.Now())
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		log.WithField("session", sessionID).Info("session started")
		board.Subscribe(func(ev engine.Event) { rec.Record(ev) })
		g.Go(func() error { return rec.Run(ctx) })
	}

	if cfg.Plugins.Enabled {
		mgr := plugin.NewManager(cfg.Plugins.Dir, logger)
		if err := mgr.Discover(); err != nil {
			log.WithError(err).Warn("plugin discovery failed")
		} else if len(mgr.List()) > 0 {
			dispatcher := plugin.NewDispatcher(mgr, plugin.NewExecutor(cfg.Plugins.Timeout()), plugin.DefaultQueue, logger)
			board.Subscribe(dispatcher.Notify)
			g.Go(func() error { return dispatcher.Run(ctx) })
		}
	}

	srv := server.New(server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		Board:     board,
		Hub:       hub,
		StreamFPS: cfg.Server.StreamFPS,
		Log:       logger,
	})

	g.Go(func() error { return runHands(ctx) })
	g.Go(func() error { return board.Run(ctx) })
	g.Go(func() error { return srv.ListenAndServe(ctx, cfg.Server.Addr) })
	if _, err := os.Stat(opts.configPath); err == nil {
		g.Go(func() error {
			return config.Watch(ctx, opts.configPath, logger, func(next *config.Config) {
				if err := logging.SetLevel(logger, next.Log.Level); err != nil {
					log.WithError(err).Warn("keeping current log level")
				}
			})
		})
	}

	if opts.withTray {
		t := tray.New()
		t.SetEnabled(board.TrackingEnabled())
		t.OnToggle(func(enabled bool) {
			if err := board.SetTrackingEnabled(enabled); err != nil {
				log.WithError(err).Warn("persist tracking setting")
			}
		})
		t.OnClear(board.ClearBoard)
		t.OnOpenBoard(func() { openBrowser(boardURL(cfg.Server.Addr), log) })
		t.OnQuit(stop)
		board.Subscribe(func(ev engine.Event) { t.SetLastAction(ev.Label) })

		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// systray must own the main goroutine.
		t.Run()
		stop()
	}

	err = g.Wait()
	log.Info("pinchboard stopped")
	return err
}

func applyFlags(cfg *config.Config, opts *options) {
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.camera >= 0 {
		cfg.Camera.DeviceID = opts.camera
	}
	if opts.dbPath != "" {
		cfg.Store.Path = opts.dbPath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.staticDir != "" {
		cfg.Server.StaticDir = opts.staticDir
	}
	if opts.noStore {
		cfg.Store.Enabled = false
	}
}

// newHandSource returns the camera tracker, or a looping trace player when
// replay names a trace.
func newHandSource(cfg *config.Config, trace string, logger logrus.FieldLogger) (app.HandSource, func(context.Context) error, error) {
	if trace != "" {
		tr, err := replay.Open(trace)
		if err != nil {
			return nil, nil, err
		}
		if tr.Width != cfg.Canvas.Width {
			return nil, nil, fmt.Errorf("trace %s is %dpx wide, canvas is %dpx", tr.Name, tr.Width, cfg.Canvas.Width)
		}
		logger.WithField("component", "main").WithField("trace", tr.Name).Info("replaying hand trace")
		player := replay.NewPlayer(tr, true)
		return player, player.Run, nil
	}

	trk := tracker.New(tracker.Config{
		Width:       cfg.Canvas.Width,
		Height:      cfg.Canvas.Height,
		IdleFPS:     cfg.Camera.IdleFPS,
		ActiveFPS:   cfg.Camera.ActiveFPS,
		IdleTimeout: cfg.Camera.IdleTimeout(),
	},
		capture.NewCamera(capture.Config{DeviceID: cfg.Camera.DeviceID, Width: cfg.Canvas.Width, Height: cfg.Canvas.Height}),
		capture.NewMotionDetector(cfg.Camera.MotionThreshold),
		newDetector(logger),
		logger,
	)
	return trk, trk.Run, nil
}

// newDetector prefers MediaPipe and falls back to a detector that never sees
// a hand, so the board still renders the camera feed.
func newDetector(logger logrus.FieldLogger) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), logger)
	if err == nil {
		logger.WithField("component", "main").Info("using MediaPipe hand detection")
		return mp
	}
	logger.WithField("component", "main").WithError(err).Warn("MediaPipe not available, hand tracking disabled")
	return detector.NewMockDetector()
}

func boardURL(addr string) string {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/api/stream"
}

func openBrowser(url string, log logrus.FieldLogger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.WithError(err).Warn("open browser")
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `pinchboard: draw on the camera feed by pinching thumb and index finger.

Usage:
  pinchboard [flags]

Flags:
%s`, flagSet.FlagUsages())
}
