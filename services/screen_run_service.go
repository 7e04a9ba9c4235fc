package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"stock_screener_backend/models"
	"stock_screener_backend/services/filters"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ScreenRunService persists completed screening runs and their matches
type ScreenRunService struct {
	db *gorm.DB
}

// NewScreenRunService creates a new screen run service
func NewScreenRunService(db *gorm.DB) *ScreenRunService {
	return &ScreenRunService{db: db}
}

// RecordRun writes one completed screening call and its qualifying symbols
func (s *ScreenRunService) RecordRun(
	requestedBy string,
	fs []filters.Filter,
	symbols []string,
	start, end time.Time,
	result *models.ScreenResult,
	meta *models.ExtensionMetadata,
) (*models.ScreenRun, error) {
	descriptions := make([]string, len(fs))
	for i, f := range fs {
		descriptions[i] = f.Describe()
	}
	paramsJSON, err := json.Marshal(descriptions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter params: %w", err)
	}

	run := &models.ScreenRun{
		RequestedBy:      requestedBy,
		StartDate:        start,
		EndDate:          end,
		FilterParams:     string(paramsJSON),
		SymbolCount:      len(symbols),
		NumProcessed:     result.NumProcessed,
		NumErrors:        result.NumErrors,
		NumQualifying:    len(result.QualifyingSymbols),
		ProcessingTimeMs: result.ProcessingTimeMs,
	}
	if meta != nil {
		run.ExtensionDays = meta.ExtensionDays
		run.FetchMode = meta.FetchMode
	}

	for _, symbol := range result.QualifyingSymbols {
		fr := result.PerSymbolResults[symbol]
		if fr == nil {
			continue
		}
		match, err := buildMatch(symbol, fr)
		if err != nil {
			log.Printf("Skipping match persistence for %s: %v", symbol, err)
			continue
		}
		run.Matches = append(run.Matches, *match)
	}

	if err := s.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to persist screen run: %w", err)
	}
	return run, nil
}

func buildMatch(symbol string, fr *models.FilterResult) (*models.ScreenMatch, error) {
	dates := fr.QualifyingDates()
	dateStrings := make([]string, len(dates))
	for i, d := range dates {
		dateStrings[i] = d.Format("2006-01-02")
	}
	datesJSON, err := json.Marshal(dateStrings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qualifying dates: %w", err)
	}
	metricsJSON, err := json.Marshal(fr.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metrics: %w", err)
	}

	match := &models.ScreenMatch{
		Symbol:          symbol,
		QualifyingDates: string(datesJSON),
		Metrics:         string(metricsJSON),
	}
	if v, ok := fr.Metrics["last_close"]; ok {
		match.LastClose = decimal.NewFromFloat(v)
	}
	if v, ok := fr.Metrics["last_dollar_volume"]; ok {
		match.DollarVolume = decimal.NewFromFloat(v)
	}
	return match, nil
}

// ListRuns returns recent screen runs, newest first
func (s *ScreenRunService) ListRuns(limit int) ([]models.ScreenRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []models.ScreenRun
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list screen runs: %w", err)
	}
	return runs, nil
}

// GetRun loads one run with its matches
func (s *ScreenRunService) GetRun(id uint) (*models.ScreenRun, error) {
	var run models.ScreenRun
	if err := s.db.Preload("Matches").First(&run, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load screen run %d: %w", id, err)
	}
	return &run, nil
}
