package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voice-satellite-lab/internal/audio"
	"github.com/voice-satellite-lab/internal/capture"
	"github.com/voice-satellite-lab/internal/config"
	"github.com/voice-satellite-lab/internal/device"
	"github.com/voice-satellite-lab/internal/logging"
	"github.com/voice-satellite-lab/internal/metrics"
	"github.com/voice-satellite-lab/internal/playback"
	"github.com/voice-satellite-lab/internal/session"
	"github.com/voice-satellite-lab/internal/transport"
)

func main() {
	logging.Init()
	defer func() { _ = logging.Sync() }()

	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML config (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logging.FatalExitf("config load failed", "err", err)
	}

	format := audio.Format{
		SampleRate:    cfg.Audio.SampleRate,
		Channels:      cfg.Audio.Channels,
		BitsPerSample: cfg.Audio.BitsPerSample,
	}

	// One allocation for the lifetime of the process; everything downstream
	// borrows this buffer through the session.
	buf, err := audio.NewBuffer(audio.BufferCapacity(format, cfg.Recording.MaxSeconds))
	if err != nil {
		logging.FatalExitf("sample buffer allocation failed", "err", err)
	}
	logging.Infow("sample buffer allocated", "bytes", buf.Cap(),
		"max_seconds", cfg.Recording.MaxSeconds, "sample_rate", format.SampleRate)

	// Stub peripherals; deployments with real hardware replace these
	// bindings with their I2S/GPIO implementations of the device interfaces.
	var (
		mic  device.Mic     = device.NewSilenceMic(format.ByteRate())
		spk  device.Speaker = device.DiscardSpeaker{}
		trig device.Trigger = device.StaticTrigger(false)
		netw device.Network = device.AlwaysUpNetwork{}
	)

	reg := prometheus.NewRegistry()
	m := metrics.NewPipeline(reg)
	if addr := cfg.Transport.MetricsAddr; addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			logging.Infow("metrics listening", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logging.Warnw("metrics server stopped", "err", err)
			}
		}()
	}

	sess := session.New(session.Params{
		Buffer:          buf,
		Trigger:         trig,
		Capture:         capture.New(mic, buf, cfg.Recording.ChunkBytes),
		Exchange:        transport.New(cfg.Transport.ServerURL, cfg.Transport.Timeout(), netw),
		Playback:        playback.New(spk, format, cfg.Playback.ChunkBytes),
		Format:          format,
		MinSendDuration: cfg.Recording.MinSendDuration(),
		PollInterval:    cfg.Recording.PollInterval(),
		Metrics:         m,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logging.Infow("shutdown signal received")
		cancel()
	}()

	logging.Infow("voice satellite starting", "server_url", cfg.Transport.ServerURL)
	if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.FatalExitf("session loop failed", "err", err)
	}
	logging.Infow("voice satellite stopped")
}
