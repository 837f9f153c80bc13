package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/minimap-watch-go/app"
	"github.com/soocke/minimap-watch-go/config"
	"github.com/soocke/minimap-watch-go/debug"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfgPath   = flag.String("config", config.DefaultPath(), "path to JSON config file")
		templates = flag.String("templates", "", "template directory (overrides config)")
		headless  = flag.Bool("headless", false, "run without a window, logging detections")
		debugFlag = flag.Bool("debug", false, "enable debug logging and runtime loggers")
		region    = flag.String("region", "", "capture region as left,top,width,height")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	bootLogger := NewLogger(os.Stderr, slog.LevelInfo)
	if err != nil {
		bootLogger.Warn("config load failed, using defaults", "path", *cfgPath, "error", err)
	}
	if *templates != "" {
		cfg.TemplateDir = *templates
	}
	if *headless {
		cfg.Headless = true
	}
	if *debugFlag {
		cfg.Debug = true
	}
	if *region != "" {
		r, err := parseRegion(*region)
		if err != nil {
			bootLogger.Error("invalid -region", "error", err)
			return 2
		}
		cfg.Region = r
	}
	if err := cfg.Validate(); err != nil {
		bootLogger.Error("invalid configuration", "error", err)
		return 2
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(os.Stderr, level).With("run", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Debug {
		debug.StartGoroutineLogger(ctx, 5*time.Second, logger)
		debug.StartMemLogger(ctx, 5*time.Second, logger)
	}

	c, err := app.BuildContainer(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer c.Close()

	logger.Info("monitor.start",
		"region", fmt.Sprintf("%+v", cfg.Region),
		"templates", c.Gallery.Len(),
		"headless", cfg.Headless,
		"match_backend", cfg.MatchBackend,
	)
	if cfg.Headless {
		err = app.RunHeadless(ctx, c)
	} else {
		err = app.RunWindow(ctx, c)
	}
	if err != nil {
		logger.Error("monitor stopped with error", "error", err)
		return 1
	}
	return 0
}

// parseRegion parses "left,top,width,height".
func parseRegion(s string) (config.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return config.Region{}, fmt.Errorf("want left,top,width,height, got %q", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return config.Region{}, fmt.Errorf("region field %d: %w", i, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return config.Region{}, errors.New("region width and height must be positive")
	}
	return config.Region{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}, nil
}
