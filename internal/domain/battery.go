package domain

import "fmt"

// BatteryPercent derives a whole percentage from a level/scale pair,
// rounding half up. 33/50 yields 66.
func BatteryPercent(level, scale int) (int, error) {
	if scale <= 0 {
		return 0, fmt.Errorf("battery scale must be positive, got %d", scale)
	}
	if level < 0 {
		return 0, fmt.Errorf("battery level must not be negative, got %d", level)
	}
	return (level*200 + scale) / (2 * scale), nil
}

// BatteryPercentFromEvent reads level and scale extras from a
// BatteryChanged event and derives the percentage.
func BatteryPercentFromEvent(ev Event) (int, error) {
	level, err := ev.IntExtra(ExtraLevel)
	if err != nil {
		return 0, err
	}
	scale, err := ev.IntExtra(ExtraScale)
	if err != nil {
		return 0, err
	}
	return BatteryPercent(level, scale)
}
