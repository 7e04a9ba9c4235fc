package filters

import "fmt"

// Config is the typed filter configuration accepted from API requests and
// presets. Each section is optional; a present section enables that filter
// and is validated when the filter is built.
type Config struct {
	PriceRange     *PriceRangeConfig     `json:"price_range,omitempty"`
	MovingAverage  *MovingAverageConfig  `json:"moving_average,omitempty"`
	RSI            *RSIConfig            `json:"rsi,omitempty"`
	Gap            *GapConfig            `json:"gap,omitempty"`
	RelativeVolume *RelativeVolumeConfig `json:"relative_volume,omitempty"`
	DollarVolume   *DollarVolumeConfig   `json:"dollar_volume,omitempty"`
}

// PriceRangeConfig configures the price range filter
type PriceRangeConfig struct {
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`
}

// MovingAverageConfig configures the price-vs-moving-average filter
type MovingAverageConfig struct {
	Period    int    `json:"period"`    // 20, 50 or 200
	Condition string `json:"condition"` // above or below
}

// RSIConfig configures the RSI filter
type RSIConfig struct {
	Period    int     `json:"period"` // 0 means the default 14
	Condition string  `json:"condition"`
	Threshold float64 `json:"threshold"`
}

// GapConfig configures the gap filter
type GapConfig struct {
	Threshold float64 `json:"threshold"` // percent
	Direction string  `json:"direction"` // up, down or both
}

// RelativeVolumeConfig configures the relative volume filter
type RelativeVolumeConfig struct {
	RecentDays   int     `json:"recent_days"`
	LookbackDays int     `json:"lookback_days"`
	MinRatio     float64 `json:"min_ratio"`
}

// DollarVolumeConfig configures the previous-day dollar volume filter
type DollarVolumeConfig struct {
	MinDollarVolume float64 `json:"min_dollar_volume"`
}

// Build constructs the enabled filters, validating every parameter set.
// Returns a ConfigurationError on the first invalid section and an error
// when no section is enabled.
func (c *Config) Build() ([]Filter, error) {
	var built []Filter

	if c.PriceRange != nil {
		f, err := NewPriceRangeFilter(c.PriceRange.MinPrice, c.PriceRange.MaxPrice)
		if err != nil {
			return nil, err
		}
		built = append(built, f)
	}
	if c.MovingAverage != nil {
		f, err := NewMovingAverageFilter(c.MovingAverage.Period, c.MovingAverage.Condition)
		if err != nil {
			return nil, err
		}
		built = append(built, f)
	}
	if c.RSI != nil {
		f, err := NewRSIFilter(c.RSI.Period, c.RSI.Condition, c.RSI.Threshold)
		if err != nil {
			return nil, err
		}
		built = append(built, f)
	}
	if c.Gap != nil {
		f, err := NewGapFilter(c.Gap.Threshold, c.Gap.Direction)
		if err != nil {
			return nil, err
		}
		built = append(built, f)
	}
	if c.RelativeVolume != nil {
		f, err := NewRelativeVolumeFilter(c.RelativeVolume.RecentDays, c.RelativeVolume.LookbackDays, c.RelativeVolume.MinRatio)
		if err != nil {
			return nil, err
		}
		built = append(built, f)
	}
	if c.DollarVolume != nil {
		f, err := NewDollarVolumeFilter(c.DollarVolume.MinDollarVolume)
		if err != nil {
			return nil, err
		}
		built = append(built, f)
	}

	if len(built) == 0 {
		return nil, fmt.Errorf("no filters enabled in configuration")
	}
	return built, nil
}
