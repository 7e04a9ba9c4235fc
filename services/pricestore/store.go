package pricestore

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stock_screener_backend/models"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a local on-disk mirror of fetched daily bars. The fetch
// orchestrator writes through to it after successful provider calls and
// falls back to it when the provider is unavailable for a symbol.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the bar store at the given path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create bar store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bar store: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping bar store: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	log.Printf("Bar store opened at %s", path)
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS daily_bars (
		symbol TEXT NOT NULL,
		date   TEXT NOT NULL,
		open   REAL NOT NULL,
		high   REAL NOT NULL,
		low    REAL NOT NULL,
		close  REAL NOT NULL,
		volume INTEGER NOT NULL,
		vwap   REAL,
		PRIMARY KEY (symbol, date)
	);
	CREATE INDEX IF NOT EXISTS idx_daily_bars_date ON daily_bars(date);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create bar store tables: %w", err)
	}
	return nil
}

// SaveSeries upserts all bars of a series in one transaction
func (s *Store) SaveSeries(series *models.BarSeries) error {
	if series == nil || series.Len() == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin bar store transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO daily_bars
		(symbol, date, open, high, low, close, volume, vwap)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare bar insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range series.Bars {
		if _, err := stmt.Exec(b.Symbol, b.Date.UTC().Format("2006-01-02"),
			b.Open, b.High, b.Low, b.Close, b.Volume, b.VWAP); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert bar %s %s: %w", b.Symbol, b.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// GetRange loads locally cached bars for one symbol within [start, end],
// ordered by date
func (s *Store) GetRange(symbol string, start, end time.Time) (*models.BarSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT date, open, high, low, close, volume, vwap
		FROM daily_bars
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		symbol, start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var dateStr string
		var vwap sql.NullFloat64
		b := models.Bar{Symbol: symbol}
		if err := rows.Scan(&dateStr, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &vwap); err != nil {
			return nil, fmt.Errorf("failed to scan bar for %s: %w", symbol, err)
		}
		date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse bar date %q for %s: %w", dateStr, symbol, err)
		}
		b.Date = date
		if vwap.Valid {
			b.VWAP = vwap.Float64
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading bars for %s: %w", symbol, err)
	}
	return models.NewBarSeries(symbol, bars), nil
}

// CountBars returns the number of stored bars, for health reporting
func (s *Store) CountBars() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM daily_bars`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bars: %w", err)
	}
	return count, nil
}
