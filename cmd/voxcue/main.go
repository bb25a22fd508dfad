// Command voxcue renders a multi-character RenderPlan document to a WAV
// file: load config, register synthesis providers, schedule the plan,
// mix the result, and write it to disk. Follows the teacher's
// cmd/main.go shape — a short, linear main with slog progress lines —
// generalized from a single hard-coded script to a configurable plan
// path and provider set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/voxcue/voxcue/pkg/voxcue/codec"
	"github.com/voxcue/voxcue/pkg/voxcue/config"
	"github.com/voxcue/voxcue/pkg/voxcue/engine"
	"github.com/voxcue/voxcue/pkg/voxcue/mixer"
	"github.com/voxcue/voxcue/pkg/voxcue/observability"
	"github.com/voxcue/voxcue/pkg/voxcue/plan"
	"github.com/voxcue/voxcue/pkg/voxcue/provider"
	"github.com/voxcue/voxcue/pkg/voxcue/provider/httpvoice"
	"github.com/voxcue/voxcue/pkg/voxcue/provider/wsvoice"
	"github.com/voxcue/voxcue/pkg/voxcue/scheduler"
)

func main() {
	planPath := flag.String("plan", "examples/plan.yaml", "path to a RenderPlan YAML document")
	configPath := flag.String("config", "", "path to a voxcue config file (optional)")
	outputPath := flag.String("output", "asset/voxcue_output.wav", "output WAV path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	config.SetupLogging(cfg.Logging)

	ctx := context.Background()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		m, handler, err := observability.New(cfg.Metrics.ServiceName)
		if err != nil {
			slog.Error("failed to initialize metrics", "error", err)
			os.Exit(1)
		}
		metrics = m
		defer metrics.Shutdown(ctx)
		go serveMetrics(cfg.Metrics.ListenAddr, handler)
	}

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		slog.Error("failed to register providers", "error", err)
		os.Exit(1)
	}
	if registry.Len() == 0 {
		slog.Error("no synthesis providers registered; add providers.http or providers.ws entries to the config")
		os.Exit(1)
	}

	renderPlan, err := plan.LoadYAML(*planPath)
	if err != nil {
		slog.Error("failed to load render plan", "path", *planPath, "error", err)
		os.Exit(1)
	}

	voiceEngine := engine.New(registry, metrics)
	sched := scheduler.New(voiceEngine)

	slog.Info("scheduling render plan", "path", *planPath, "characters", len(renderPlan.Characters), "lines", len(renderPlan.Lines))
	result, err := sched.Schedule(ctx, renderPlan)
	if err != nil {
		slog.Error("failed to schedule render plan", "error", err)
		os.Exit(1)
	}

	mixOpts := mixer.Options{
		Normalize:        cfg.Mixer.Normalize,
		CompressionLevel: cfg.Mixer.CompressionLevel,
		CrossfadeMs:      orInt64(cfg.Mixer.CrossfadeMs, renderPlan.Global.CrossfadeMs),
		MasterVolume:     orFloat(cfg.Mixer.MasterVolume, renderPlan.Global.MasterVolume),
	}

	start := time.Now()
	master := mixer.Mix(result.Tracks, result.Timeline, mixOpts)
	mixDuration := time.Since(start)
	if metrics != nil {
		metrics.RecordMixDuration(ctx, float64(mixDuration.Milliseconds()))
	}

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	f, err := os.Create(*outputPath)
	if err != nil {
		slog.Error("failed to create output file", "path", *outputPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := codec.EncodeWAV(f, master); err != nil {
		slog.Error("failed to encode wav", "error", err)
		os.Exit(1)
	}

	absPath, _ := filepath.Abs(*outputPath)
	slog.Info("render complete",
		"output", absPath,
		"duration", time.Duration(result.Stats.TotalDurationMs)*time.Millisecond,
		"speaking_chars", len(result.Stats.SpeakingTimeMsByChar),
		"overlaps", result.Stats.OverlapCount,
		"failed_segments", result.Stats.FailedSegments,
		"mix_time", mixDuration,
		"size", humanize.Bytes(uint64(len(master.Samples))),
	)
}

func buildRegistry(ctx context.Context, cfg *config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	for _, hc := range cfg.Providers.HTTP {
		backend, err := httpvoice.New(httpvoice.Config{
			Name:           hc.Name,
			BaseURL:        hc.BaseURL,
			RateLimitRPS:   float64(hc.RateLimitPerSec),
			VoiceCacheSize: 256,
		})
		if err != nil {
			return nil, fmt.Errorf("build httpvoice backend %q: %w", hc.Name, err)
		}
		if err := registry.Register(ctx, backend); err != nil {
			slog.Warn("skipping unavailable provider", "provider", hc.Name, "error", err)
		}
	}

	for _, wc := range cfg.Providers.WS {
		backend := wsvoice.New(wsvoice.Config{
			Name:      wc.Name,
			WSBaseURL: wc.URL,
			APIKey:    wc.APIKey,
		})
		if err := registry.Register(ctx, backend); err != nil {
			slog.Warn("skipping unavailable provider", "provider", wc.Name, "error", err)
		}
	}

	return registry, nil
}

func serveMetrics(addr string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}

func orInt64(vs ...int64) int64 {
	for _, v := range vs {
		if v != 0 {
			return v
		}
	}
	return 0
}

func orFloat(vs ...float64) float64 {
	for _, v := range vs {
		if v != 0 {
			return v
		}
	}
	return 1.0
}
