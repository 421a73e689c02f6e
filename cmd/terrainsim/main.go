package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"flight-terrain/internal/biome"
	"flight-terrain/internal/config"
	"flight-terrain/internal/profiling"
	"flight-terrain/internal/world"

	"github.com/xlab/closer"
)

func main() {
	var (
		cfgPath    string
		frames     int
		dt         time.Duration
		speed      float64
		altitude   float64
		previewDir string
		statsEvery int
	)
	flag.StringVar(&cfgPath, "config", "", "path to terrain configuration file")
	flag.IntVar(&frames, "frames", 600, "number of frames to simulate")
	flag.DurationVar(&dt, "dt", 16*time.Millisecond, "simulated time per frame")
	flag.Float64Var(&speed, "speed", 400, "camera ground speed in units per second")
	flag.Float64Var(&altitude, "altitude", 300, "camera height above the terrain")
	flag.StringVar(&previewDir, "preview", "", "directory for PNG previews of the final chunk set")
	flag.IntVar(&statsEvery, "stats-every", 60, "log world stats every N frames")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	reg := biome.NewRegistry()
	if err := biome.RegisterDefaults(reg); err != nil {
		log.Fatalf("register biomes: %v", err)
	}

	logger := log.New(os.Stderr, "terrain ", log.LstdFlags|log.Lmicroseconds)
	counter := &countingRenderer{}
	w, err := world.New(cfg, reg,
		world.WithLogger(logger),
		world.WithRenderer(counter),
		world.WithProfiler(profiling.Default),
	)
	if err != nil {
		log.Fatalf("initialise world: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	closer.Bind(func() {
		cancel()
		<-done
	})

	flight := &Flight{
		world:      w,
		renderer:   counter,
		camera:     cfg.Camera,
		dt:         dt,
		speed:      float32(speed),
		altitude:   float32(altitude),
		statsEvery: statsEvery,
		logger:     logger,
	}
	runErr := flight.Run(ctx, frames)
	if runErr == nil && previewDir != "" {
		if err := writePreviews(previewDir, w); err != nil {
			logger.Printf("previews: %v", err)
		}
	}
	w.Close()
	close(done)

	if runErr != nil && ctx.Err() == nil {
		log.Printf("flight aborted: %v", runErr)
		closer.Exit(1)
	}
	closer.Close()
}
