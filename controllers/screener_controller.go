package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"stock_screener_backend/config"
	"stock_screener_backend/services"
	"stock_screener_backend/services/cache"
	"stock_screener_backend/services/filters"
	"stock_screener_backend/services/screener"

	"github.com/gin-gonic/gin"
)

// ScreenerController handles screening requests
type ScreenerController struct {
	engine     *screener.Engine
	cache      cache.ResultCache
	runService *services.ScreenRunService
}

// NewScreenerController creates a new screener controller
func NewScreenerController(engine *screener.Engine, resultCache cache.ResultCache, runService *services.ScreenRunService) *ScreenerController {
	return &ScreenerController{
		engine:     engine,
		cache:      resultCache,
		runService: runService,
	}
}

// ScreenRequest is the screening payload. Symbols defaults to the
// configured universe when omitted.
type ScreenRequest struct {
	Symbols   []string       `json:"symbols"`
	StartDate string         `json:"start_date" binding:"required"`
	EndDate   string         `json:"end_date" binding:"required"`
	Filters   filters.Config `json:"filters"`
	NoCache   bool           `json:"no_cache"`
}

// Screen runs the filter set over a date range with automatic lookback
// extension
// POST /api/v1/screener/screen
func (sc *ScreenerController) Screen(c *gin.Context) {
	var req ScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sc.runScreen(c, &req, "api")
}

// runScreen executes one screening call shared by Screen and RunPreset
func (sc *ScreenerController) runScreen(c *gin.Context, req *ScreenRequest, requestedBy string) {
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fs, err := req.Filters.Build()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = config.AppConfig.DefaultSymbols
	}

	key := cache.BuildKey(fs, start, end, req.Symbols)
	if sc.cache != nil && !req.NoCache {
		if cached, ok := sc.cache.Get(c.Request.Context(), key); ok {
			c.JSON(http.StatusOK, gin.H{
				"data":   cached,
				"cached": true,
			})
			return
		}
	}

	result, meta, err := sc.engine.ScreenWithExtension(c.Request.Context(), symbols, fs, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if sc.cache != nil {
		ttl := time.Duration(config.AppConfig.CacheTTLMinutes) * time.Minute
		if err := sc.cache.Put(c.Request.Context(), key, result, ttl); err != nil {
			log.Printf("Failed to cache screen result: %v", err)
		}
	}

	var runID uint
	if sc.runService != nil {
		run, err := sc.runService.RecordRun(requestedBy, fs, symbols, start, end, result, meta)
		if err != nil {
			log.Printf("Failed to persist screen run: %v", err)
		} else {
			runID = run.ID
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      result,
		"extension": meta,
		"run_id":    runID,
		"cached":    false,
	})
}

// preset pairs a named, described filter configuration with an id
type preset struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Filters     filters.Config `json:"filters"`
}

// presets returns the predefined screener configurations
func presets() []preset {
	return []preset{
		{
			ID:          "gap_up_momentum",
			Name:        "Gap-Up Momentum",
			Description: "Liquid stocks gapping up at least 3% over the prior close",
			Filters: filters.Config{
				Gap:          &filters.GapConfig{Threshold: 3.0, Direction: filters.GapUp},
				DollarVolume: &filters.DollarVolumeConfig{MinDollarVolume: 10_000_000},
			},
		},
		{
			ID:          "oversold_rsi",
			Name:        "Oversold (RSI < 30)",
			Description: "Stocks with 14-day RSI below 30, potentially washed out",
			Filters: filters.Config{
				RSI: &filters.RSIConfig{Condition: filters.ConditionBelow, Threshold: 30},
			},
		},
		{
			ID:          "overbought_rsi",
			Name:        "Overbought (RSI > 70)",
			Description: "Stocks with 14-day RSI above 70",
			Filters: filters.Config{
				RSI: &filters.RSIConfig{Condition: filters.ConditionAbove, Threshold: 70},
			},
		},
		{
			ID:          "above_200_sma",
			Name:        "Above 200-Day SMA",
			Description: "Long-term uptrends opening above their 200-day average",
			Filters: filters.Config{
				MovingAverage: &filters.MovingAverageConfig{Period: 200, Condition: filters.ConditionAbove},
			},
		},
		{
			ID:          "volume_surge",
			Name:        "Volume Surge",
			Description: "Recent volume at least 3x the trailing 20-day average",
			Filters: filters.Config{
				RelativeVolume: &filters.RelativeVolumeConfig{RecentDays: 1, LookbackDays: 20, MinRatio: 3.0},
			},
		},
		{
			ID:          "low_priced_movers",
			Name:        "Low-Priced Movers",
			Description: "Stocks opening between $1 and $20 with a 5% gap in either direction",
			Filters: filters.Config{
				PriceRange: &filters.PriceRangeConfig{MinPrice: 1, MaxPrice: 20},
				Gap:        &filters.GapConfig{Threshold: 5.0, Direction: filters.GapBoth},
			},
		},
	}
}

// GetPresets returns predefined screener configurations
// GET /api/v1/screener/presets
func (sc *ScreenerController) GetPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": presets()})
}

// RunPreset runs a predefined screener over a date range
// POST /api/v1/screener/presets/:id
func (sc *ScreenerController) RunPreset(c *gin.Context) {
	presetID := c.Param("id")

	var selected *preset
	for _, p := range presets() {
		if p.ID == presetID {
			selected = &p
			break
		}
	}
	if selected == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preset not found"})
		return
	}

	var req struct {
		Symbols   []string `json:"symbols"`
		StartDate string   `json:"start_date" binding:"required"`
		EndDate   string   `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sc.runScreen(c, &ScreenRequest{
		Symbols:   req.Symbols,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Filters:   selected.Filters,
	}, "preset:"+presetID)
}

// GetRuns returns recent screen run history
// GET /api/v1/screener/runs
func (sc *ScreenerController) GetRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := sc.runService.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs})
}

// GetRun returns one screen run with its matches
// GET /api/v1/screener/runs/:id
func (sc *ScreenerController) GetRun(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}
	run, err := sc.runService.GetRun(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": run})
}

// GetSymbols returns the configured default universe
// GET /api/v1/screener/symbols
func (sc *ScreenerController) GetSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data":  config.AppConfig.DefaultSymbols,
		"count": len(config.AppConfig.DefaultSymbols),
	})
}

// parseDateRange parses and sanity-checks the requested range
func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", startStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q (expected YYYY-MM-DD)", startStr)
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q (expected YYYY-MM-DD)", endStr)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date %s before start_date %s", endStr, startStr)
	}
	return start, end, nil
}
