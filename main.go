// Package main provides the entry point for the Mag Surveyor application.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"mag-surveyor/internal/app"
	"mag-surveyor/internal/config"
	"mag-surveyor/internal/floorplan"
	"mag-surveyor/internal/sensor"
	"mag-surveyor/internal/version"
	"mag-surveyor/ui/mainwindow"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "mag-surveyor"

func main() {
	configPath := flag.String("config", "", "survey.yaml (defaults are used when empty)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting Mag Surveyor %s", version.String())

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Config: %v", err)
		}
	}

	plan, err := floorplan.FromConfig(cfg.FloorPlan)
	if err != nil {
		log.Printf("Floor plan: %v", err)
	}

	sampler := sensor.NewSampler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startSensor(ctx, cfg.Sensor, sampler)

	state := app.NewState(cfg, sampler, plan)

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&app.SurveyTheme{})

	win := mainwindow.New(a, state)
	if cfg.FloorPlan.Watch {
		if w := setupPlanWatch(state, cfg.FloorPlan.Path); w != nil {
			defer w.Stop()
		}
	}
	win.StartSensorLabels()
	win.ShowAndRun()
}

// startSensor runs the configured source until ctx is cancelled.
func startSensor(ctx context.Context, cfg config.Sensor, sampler *sensor.Sampler) {
	src, err := sensor.FromConfig(cfg)
	if err != nil {
		log.Printf("Sensor: %v", err)
		return
	}
	if src == nil {
		log.Println("Sensor: none configured, readings stay at zero")
		return
	}
	log.Printf("Sensor: %s", src.Name())
	go func() {
		if err := src.Run(ctx, sampler); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Sensor %s stopped: %v", src.Name(), err)
		}
	}()
}

// setupPlanWatch reloads the floor plan whenever the image changes on disk.
func setupPlanWatch(state *app.State, path string) *floorplan.Watcher {
	w := floorplan.NewWatcher(path, 2*time.Second)
	if w == nil {
		log.Printf("Floor plan watch: cannot stat %q", path)
		return nil
	}
	w.OnChange(func(p string) {
		log.Printf("Floor plan watch: %s changed, reloading", p)
		if err := state.LoadPlan(p); err != nil {
			state.Message("Floor plan reload failed: %v", err)
		}
	})
	w.Start()
	log.Printf("Floor plan watch: watching %s", w.Path())
	return w
}
