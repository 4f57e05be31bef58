// Package present defines the display contract the UI layer depends on:
// column ordering and the score-to-color gradient. Rendering itself lives
// outside the core.
package present

import (
	"fmt"
	"strings"
)

// Gradient endpoint colors: green at 0 through white at the midpoint to red
// at 1.
const (
	colorLow      = "#2e7d32"
	colorMid      = "#ffffff"
	colorHigh     = "#c62828"
	colorUnscored = "#455a64"

	gradientMidpoint = 0.5
)

// finalMarker mirrors the scoring package's authoritative-column detection.
const finalMarker = "final"

// OrderColumns returns every display attribute exactly once: level columns
// first, then score columns with the final risk score moved last, then
// extras.
func OrderColumns(levels, scores, extras []string) []string {
	out := make([]string, 0, len(levels)+len(scores)+len(extras))
	out = append(out, levels...)

	var final []string
	for _, c := range scores {
		if strings.Contains(strings.ToLower(c), finalMarker) {
			final = append(final, c)
			continue
		}
		out = append(out, c)
	}
	out = append(out, final...)
	out = append(out, extras...)
	return out
}

// GradientColor maps a composite score in [0,1] to a hex color along the
// green-white-red scale. Inputs outside [0,1] are clamped first. The two
// endpoints map exactly to the endpoint colors and the mapping is monotonic
// along the interpolation path.
func GradientColor(score float64) string {
	switch {
	case score < 0:
		score = 0
	case score > 1:
		score = 1
	}

	if score <= gradientMidpoint {
		return interpolate(colorLow, colorMid, score/gradientMidpoint)
	}
	return interpolate(colorMid, colorHigh, (score-gradientMidpoint)/gradientMidpoint)
}

// UnscoredColor is the neutral badge color for records with no scores.
func UnscoredColor() string {
	return colorUnscored
}

// BadgeLabel formats a composite score as the percent label shown in the
// risk badge, or "N/A" for unscored records.
func BadgeLabel(score float64, scored bool) string {
	if !scored {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", clamp01(score)*100)
}

// interpolate blends two #rrggbb colors linearly in RGB space.
func interpolate(from, to string, t float64) string {
	r1, g1, b1 := splitHex(from)
	r2, g2, b2 := splitHex(to)
	r := r1 + int(float64(r2-r1)*t)
	g := g1 + int(float64(g2-g1)*t)
	b := b1 + int(float64(b2-b1)*t)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func splitHex(c string) (r, g, b int) {
	c = strings.TrimPrefix(c, "#")
	fmt.Sscanf(c, "%02x%02x%02x", &r, &g, &b) //nolint:errcheck // inputs are package constants
	return r, g, b
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
