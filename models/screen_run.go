package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScreenRun persists one completed screening call
type ScreenRun struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	RequestedBy      string        `json:"requested_by"` // api, scheduler
	StartDate        time.Time     `gorm:"index" json:"start_date"`
	EndDate          time.Time     `json:"end_date"`
	FilterParams     string        `gorm:"type:text" json:"filter_params"` // canonical filter description JSON
	SymbolCount      int           `json:"symbol_count"`
	NumProcessed     int           `json:"num_processed"`
	NumErrors        int           `json:"num_errors"`
	NumQualifying    int           `json:"num_qualifying"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
	ExtensionDays    int           `json:"extension_days"`
	FetchMode        string        `json:"fetch_mode"` // bulk, individual, bulk_fallback
	Matches          []ScreenMatch `gorm:"foreignKey:ScreenRunID" json:"matches,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// ScreenMatch persists one qualifying symbol within a screen run
type ScreenMatch struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ScreenRunID     uint            `gorm:"index" json:"screen_run_id"`
	Symbol          string          `gorm:"index" json:"symbol"`
	QualifyingDates string          `gorm:"type:text" json:"qualifying_dates"` // JSON array of YYYY-MM-DD
	LastClose       decimal.Decimal `gorm:"type:decimal(15,4)" json:"last_close"`
	DollarVolume    decimal.Decimal `gorm:"type:decimal(20,2)" json:"dollar_volume"`
	Metrics         string          `gorm:"type:text" json:"metrics"` // JSON map of filter metrics
	CreatedAt       time.Time       `json:"created_at"`
}

// MigrateModels lists every model auto-migrated at startup
var MigrateModels = []interface{}{
	&ScreenRun{},
	&ScreenMatch{},
}
