package workout

import "fmt"

// FormatDistance renders meters below one kilometer and kilometers with two
// decimals from there on.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.2f km", meters/1000)
}

// FormatPace converts meters/second to minutes per kilometer. Seconds are
// truncated, not rounded. Zero or negative speed renders as "0:00 /km".
func FormatPace(metersPerSecond float64) string {
	if metersPerSecond <= 0 {
		return "0:00 /km"
	}
	secondsPerKm := int(1000 / metersPerSecond)
	return fmt.Sprintf("%d:%02d /km", secondsPerKm/60, secondsPerKm%60)
}

// FormatDuration renders milliseconds as M:SS below one hour and H:MM:SS
// from there on, floored to whole seconds.
func FormatDuration(millis int64) string {
	totalSeconds := millis / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
