package viz

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Link width scale: publication count in [WidthDomainMin, WidthDomainMax]
// maps linearly onto [WidthMin, WidthMax], clamped at both ends.
const (
	WidthDomainMin = 0.0
	WidthDomainMax = 20.0
	WidthMin       = 1.0
	WidthMax       = 8.0
)

// Node radii in pixels.
const (
	RootRadius  = 32
	OtherRadius = 16
)

// Rank colors, best first.
const (
	ColorBest    = "#1E90FF"
	ColorSecond  = "#228B22"
	ColorThird   = "#FFD700"
	ColorFourth  = "#FF8C00"
	DefaultColor = "#FF4500"
)

// colorOrder ranks colors from most to least interesting for blending.
var colorOrder = []string{ColorBest, ColorSecond, ColorThird, ColorFourth, DefaultColor}

// blendFraction is how far a blend moves from the better color toward the worse one.
const blendFraction = 0.3

// LinkWidth maps a publication count to a stroke width.
func LinkWidth(pubCount int) float64 {
	x := float64(pubCount)
	if x <= WidthDomainMin {
		return WidthMin
	}
	if x >= WidthDomainMax {
		return WidthMax
	}
	return WidthMin + (x-WidthDomainMin)/(WidthDomainMax-WidthDomainMin)*(WidthMax-WidthMin)
}

// ConferenceColor returns the color of a conference rank.
func ConferenceColor(rank string) string {
	switch strings.ToUpper(strings.TrimSpace(rank)) {
	case "A*":
		return ColorBest
	case "A":
		return ColorSecond
	case "B":
		return ColorThird
	case "C":
		return ColorFourth
	default:
		return DefaultColor
	}
}

// JournalColor returns the color of a journal quartile.
func JournalColor(rank string) string {
	switch strings.ToUpper(strings.TrimSpace(rank)) {
	case "Q1":
		return ColorBest
	case "Q2":
		return ColorSecond
	case "Q3":
		return ColorThird
	case "Q4":
		return ColorFourth
	default:
		return DefaultColor
	}
}

func colorIndex(c string) int {
	for i, o := range colorOrder {
		if strings.EqualFold(o, c) {
			return i
		}
	}
	return len(colorOrder)
}

// BlendColors mixes two rank colors, staying close to the better-ranked one.
// The result does not depend on argument order.
func BlendColors(a, b string) string {
	high, low := a, b
	if colorIndex(b) < colorIndex(a) {
		high, low = b, a
	}
	hr, hg, hb, err1 := parseHex(high)
	lr, lg, lb, err2 := parseHex(low)
	if err1 != nil || err2 != nil {
		return DefaultColor
	}
	mix := func(x, y int) int {
		v := float64(x)*(1-blendFraction) + float64(y)*blendFraction
		return int(math.Round(v))
	}
	return fmt.Sprintf("#%02X%02X%02X", mix(hr, lr), mix(hg, lg), mix(hb, lb))
}

func parseHex(c string) (r, g, b int, err error) {
	c = strings.TrimPrefix(c, "#")
	if len(c) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid color %q", c)
	}
	v, err := strconv.ParseUint(c, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", c, err)
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF), nil
}

// LinkColor picks an edge color. With link filtering on, the selected ranks
// decide; otherwise the edge's own average ranks do.
func LinkColor(avgConf, avgJournal, selConf, selJournal string, filterByLink bool) string {
	selConf, selJournal = strings.TrimSpace(selConf), strings.TrimSpace(selJournal)
	if filterByLink && (selConf != "" || selJournal != "") {
		return rankColor(selConf, selJournal)
	}
	return rankColor(strings.TrimSpace(avgConf), strings.TrimSpace(avgJournal))
}

func rankColor(conf, journal string) string {
	switch {
	case conf != "" && journal != "":
		return BlendColors(ConferenceColor(conf), JournalColor(journal))
	case conf != "":
		return ConferenceColor(conf)
	case journal != "":
		return JournalColor(journal)
	default:
		return DefaultColor
	}
}
