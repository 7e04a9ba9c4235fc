package scheduler

import (
	"context"
	"log"
	"time"

	"stock_screener_backend/config"
	"stock_screener_backend/services"
	"stock_screener_backend/services/filters"
	"stock_screener_backend/services/screener"

	"github.com/go-co-op/gocron"
)

// nightlyScreenTimeout bounds how long the scheduled screen may run
const nightlyScreenTimeout = 10 * time.Minute

// Scheduler manages scheduled screening jobs
type Scheduler struct {
	cron       *gocron.Scheduler
	engine     *screener.Engine
	runService *services.ScreenRunService
}

// NewScheduler creates a new scheduler instance
func NewScheduler(engine *screener.Engine, runService *services.ScreenRunService) *Scheduler {
	return &Scheduler{
		cron:       gocron.NewScheduler(time.UTC),
		engine:     engine,
		runService: runService,
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Nightly default screen after the US market close (21:30 UTC)
	s.cron.Every(1).Day().At("21:30").Do(func() {
		s.runNightlyScreen()
	})

	s.cron.StartAsync()
	log.Println("Scheduler started")
}

// Stop stops all scheduled jobs
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// runNightlyScreen screens the default universe for today's gap-up movers
// with healthy liquidity and stores the run
func (s *Scheduler) runNightlyScreen() {
	log.Println("Running nightly screen...")

	cfg := filters.Config{
		Gap:            &filters.GapConfig{Threshold: 3.0, Direction: filters.GapUp},
		RelativeVolume: &filters.RelativeVolumeConfig{RecentDays: 1, LookbackDays: 20, MinRatio: 2.0},
		DollarVolume:   &filters.DollarVolumeConfig{MinDollarVolume: 10_000_000},
	}
	fs, err := cfg.Build()
	if err != nil {
		log.Printf("Nightly screen misconfigured: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), nightlyScreenTimeout)
	defer cancel()

	target := time.Now().UTC().Truncate(24 * time.Hour)
	symbols := config.AppConfig.DefaultSymbols

	result, meta, err := s.engine.ScreenWithExtension(ctx, symbols, fs, target, target)
	if err != nil {
		log.Printf("Nightly screen failed: %v", err)
		return
	}

	if _, err := s.runService.RecordRun("scheduler", fs, symbols, target, target, result, meta); err != nil {
		log.Printf("Failed to persist nightly screen: %v", err)
		return
	}
	log.Printf("Nightly screen complete: %d/%d symbols qualified (%d errors, %dms)",
		len(result.QualifyingSymbols), result.NumProcessed, result.NumErrors, result.ProcessingTimeMs)
}
