// Package format turns market numbers into display strings and colours.
package format

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
)

// Palette, as hex without the leading '#'.
const (
	GreenAccent    = "2EE59A"
	RedAccent      = "FF6B6B"
	RedSent        = "7C2E2E"
	GraySent       = "4A5568"
	GreenSent      = "1F5F36"
	ChartLine      = "86D99B"
	CardBackground = "0F1720"
	CardBorder     = "1F2A34"
)

// Price formats a price: whole dollars with grouping from 1000 up,
// otherwise two decimals.
func Price(v float64) string {
	if math.Abs(v) >= 1000 {
		return "$" + humanize.Comma(int64(math.Round(v)))
	}
	return fmt.Sprintf("$%.2f", v)
}

// Two formats v with exactly two decimals.
func Two(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Currency formats v with at most two decimals and no trailing zeros.
func Currency(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// Percent formats a signed percentage, e.g. "+1.23%".
func Percent(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// SignColor is the accent colour for a change value.
func SignColor(v float64) string {
	if v >= 0 {
		return GreenAccent
	}
	return RedAccent
}

// SentimentColor is the badge colour for a sentiment label.
func SentimentColor(s models.Sentiment) string {
	switch s {
	case models.SentimentBullish:
		return GreenSent
	case models.SentimentBearish:
		return RedSent
	default:
		return GraySent
	}
}

// HexColor parses a 3, 6 or 8 digit hex colour. Eight digits are ARGB.
// Anything else is opaque black.
func HexColor(s string) color.RGBA {
	hex := strings.TrimFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	black := color.RGBA{A: 255}

	n, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return black
	}

	switch len(hex) {
	case 3:
		return color.RGBA{
			R: uint8((n >> 8) * 17),
			G: uint8((n >> 4 & 0xF) * 17),
			B: uint8((n & 0xF) * 17),
			A: 255,
		}
	case 6:
		return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8 & 0xFF), B: uint8(n & 0xFF), A: 255}
	case 8:
		return color.RGBA{R: uint8(n >> 16 & 0xFF), G: uint8(n >> 8 & 0xFF), B: uint8(n & 0xFF), A: uint8(n >> 24)}
	}
	return black
}

// Bar draws a text progress bar of width cells. fraction is clamped to 0..1.
func Bar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	fraction = math.Max(0, math.Min(1, fraction))
	if math.IsNaN(fraction) {
		fraction = 0
	}
	filled := int(math.Round(fraction * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// CompactNumber abbreviates large amounts: $1.23T, $4.56B, $7.89M, $1.00K.
// Smaller values print as "$<n>".
func CompactNumber(n int64) string {
	v := float64(n)
	switch {
	case n >= 1_000_000_000_000:
		return fmt.Sprintf("$%.2fT", v/1_000_000_000_000)
	case n >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", v/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("$%.2fM", v/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("$%.2fK", v/1_000)
	}
	return fmt.Sprintf("$%d", n)
}
