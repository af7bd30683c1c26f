// Package main is the entry point for the reviz motion replay tool.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/reviz/internal/config"
	"github.com/Faultbox/reviz/internal/logger"
	"github.com/Faultbox/reviz/internal/viewer"
	"github.com/Faultbox/reviz/pkg/formats"
	"github.com/Faultbox/reviz/pkg/kinematics"
	"github.com/Faultbox/reviz/pkg/playback"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== reviz motion replay ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("replay failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("replay finished")
}

func run(cfg *config.Config) error {
	// Load and build the kinematic model
	desc, err := formats.LoadURDF(cfg.Robot.Description)
	if err != nil {
		return fmt.Errorf("loading robot description: %w", err)
	}
	model, err := kinematics.BuildModel(desc)
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}
	logger.Info("model built",
		zap.String("robot", model.Name),
		zap.Int("joints", len(model.Joints)),
		zap.Int("nq", model.NQ()))

	// Bind visual meshes
	meshDir := cfg.Robot.MeshDir
	if meshDir == "" {
		meshDir = "."
	}
	bound, err := kinematics.Bind(model, kinematics.DirMeshSource(meshDir), kinematics.BindOptions{
		SkipMissing: cfg.Robot.SkipMissingMeshes,
		Logger:      logger.Log,
	})
	if err != nil {
		return fmt.Errorf("binding meshes: %w", err)
	}
	logger.Info("meshes bound",
		zap.Int("links", len(bound.Links)),
		zap.Int("skipped", len(bound.Skipped)))

	// Load the motion sequence
	if cfg.Motion.File == "" {
		return fmt.Errorf("no motion file configured, pass -motion or set motion.file")
	}
	motion, err := formats.LoadMotion(cfg.Motion.File, cfg.Motion.Rate)
	if err != nil {
		return fmt.Errorf("loading motion: %w", err)
	}
	if motion.Width() != model.NQ() {
		return fmt.Errorf("motion has %d values per frame, model needs %d", motion.Width(), model.NQ())
	}
	logger.Info("motion loaded",
		zap.Int("frames", motion.Frames()),
		zap.Float64("rate", motion.Rate()),
		zap.Float64("duration_s", motion.Duration()))

	// Pick the sink: live viewer or an in-memory recorder
	var sink playback.Sink
	if cfg.Viewer.Enabled {
		srv := viewer.NewServer(logger.Log)
		if err := srv.Start(cfg.Viewer.Listen); err != nil {
			return fmt.Errorf("starting viewer: %w", err)
		}
		defer srv.Close()
		sink = srv
	} else {
		sink = &playback.Recorder{}
	}

	opts := playback.Options{
		Loop:   cfg.Playback.Loop,
		Logger: logger.Log,
	}
	switch {
	case cfg.Playback.NoDelay:
		opts.Pacer = playback.Immediate{}
	case cfg.Playback.Rate > 0:
		opts.Pacer = playback.NewFixedRate(cfg.Playback.Rate)
	}

	// Looped playback runs until interrupted
	done := make(chan error, 1)
	go func() {
		done <- playback.Play(bound, motion, sink, opts)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case s := <-sig:
		logger.Info("interrupted", zap.String("signal", s.String()))
	}

	if rec, ok := sink.(*playback.Recorder); ok {
		logger.Info("recorded replay",
			zap.Int("time_updates", len(rec.Times)),
			zap.Int("transforms", len(rec.Transforms)),
			zap.Int("meshes", len(rec.Meshes)))
	}
	return nil
}
