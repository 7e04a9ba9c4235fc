package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"stock_screener_backend/models"
	"stock_screener_backend/services/filters"
)

// DefaultUniverse is the symbol-set identifier used when a request screens
// the configured default universe rather than an explicit symbol list
const DefaultUniverse = "default"

// ResultCache memoizes screening results keyed by filter parameters, date
// range and symbol universe. Implementations must tolerate concurrent
// readers; writes are idempotent (same key, same value).
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.ScreenResult, bool)
	Put(ctx context.Context, key string, result *models.ScreenResult, ttl time.Duration) error
}

// BuildKey derives the deterministic cache key for a screening call: a
// hash over the sorted canonical filter descriptions, the date range and
// the universe identifier. Explicit symbol lists hash the sorted symbols.
func BuildKey(fs []filters.Filter, start, end time.Time, symbols []string) string {
	descriptions := make([]string, len(fs))
	for i, f := range fs {
		descriptions[i] = f.Describe()
	}
	sort.Strings(descriptions)

	universe := DefaultUniverse
	if len(symbols) > 0 {
		sorted := append([]string(nil), symbols...)
		sort.Strings(sorted)
		universe = strings.Join(sorted, ",")
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(descriptions, ";"))
	sb.WriteString("|")
	sb.WriteString(start.UTC().Format("2006-01-02"))
	sb.WriteString("|")
	sb.WriteString(end.UTC().Format("2006-01-02"))
	sb.WriteString("|")
	sb.WriteString(universe)

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
