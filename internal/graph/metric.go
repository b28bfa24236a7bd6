package graph

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gwngames/scholargraph/internal/logger"
)

// MinYear is the earliest year whose counts are aggregated.
const MinYear = 1950

// RankDivisor scales the rank-only publication count.
const RankDivisor = 1.5

// Conference and journal rank vocabularies; anything else is unranked.
var (
	ConferenceRanks = []string{"A*", "A", "B", "C"}
	JournalRanks    = []string{"Q1", "Q2", "Q3", "Q4"}
)

// Unranked is the label for publications outside both vocabularies.
const Unranked = "Unranked"

// Filters are the user's rank and year selections as entered. Empty strings
// mean "no filter".
type Filters struct {
	ConferenceRank string `json:"conference_rank"`
	JournalRank    string `json:"journal_rank"`
	FromYear       string `json:"from_year"`
	ToYear         string `json:"to_year"`
}

func (f Filters) conferenceRank() string { return strings.TrimSpace(f.ConferenceRank) }
func (f Filters) journalRank() string    { return strings.TrimSpace(f.JournalRank) }

// HasRankFilter reports whether a conference or journal rank is selected.
func (f Filters) HasRankFilter() bool {
	return f.conferenceRank() != "" || f.journalRank() != ""
}

// YearBounds returns the parsed bounds; ok is false for a bound that is
// absent or not an integer.
func (f Filters) YearBounds() (from int, fromOK bool, to int, toOK bool) {
	from, fromOK = parseYear(f.FromYear)
	to, toOK = parseYear(f.ToYear)
	return from, fromOK, to, toOK
}

// HasYearFilter reports whether at least one year bound parses.
func (f Filters) HasYearFilter() bool {
	_, fromOK, _, toOK := f.YearBounds()
	return fromOK || toOK
}

func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return y, true
}

// ValidateYear checks a user-supplied year against [MinYear, currentYear].
// Empty input is valid and means "unbounded".
func ValidateYear(s string, currentYear int) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	y, ok := parseYear(s)
	if !ok {
		return &FilterError{Field: "year", Value: s, Reason: "not an integer"}
	}
	if y < MinYear || y > currentYear {
		return &FilterError{Field: "year", Value: s, Reason: "outside " + strconv.Itoa(MinYear) + "-" + strconv.Itoa(currentYear)}
	}
	return nil
}

// FilterError reports an invalid filter value.
type FilterError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FilterError) Error() string {
	return "invalid " + e.Field + " filter " + strconv.Quote(e.Value) + ": " + e.Reason
}

// Sums holds the intermediate aggregates of the publication count.
type Sums struct {
	YearAll     float64
	YearInRange float64
	Rank        float64
}

// Aggregate sums the year and rank counts of an edge under the filters.
// Years outside [MinYear, currentYear] never count.
func Aggregate(e *Edge, f Filters, currentYear int) Sums {
	var s Sums
	from, fromOK, to, toOK := f.YearBounds()
	hasYear := fromOK || toOK

	for year, n := range e.YearCounts {
		if year < MinYear || year > currentYear {
			continue
		}
		s.YearAll += n
		if !hasYear {
			continue
		}
		if fromOK && year < from {
			continue
		}
		if toOK && year > to {
			continue
		}
		s.YearInRange += n
	}
	if !hasYear {
		s.YearInRange = s.YearAll
	}

	if conf := f.conferenceRank(); conf != "" {
		s.Rank += e.RankCounts[conf]
	}
	if jour := f.journalRank(); jour != "" {
		s.Rank += e.RankCounts[jour]
	}
	return s
}

// ComputePubCount derives the filtered publication count of an edge:
//
//	no rank, no year: all in-range years
//	rank only:        round(rank/1.5), capped at all years
//	year only:        years within the bounds
//	rank and year:    round((rank + years within bounds) / 2)
//
// A negative result is clamped to 0.
func ComputePubCount(e *Edge, f Filters, currentYear int) int {
	n, _ := pubCount(e, f, currentYear)
	return n
}

// pubCount is ComputePubCount that also reports whether it clamped.
func pubCount(e *Edge, f Filters, currentYear int) (int, bool) {
	s := Aggregate(e, f, currentYear)
	hasRank, hasYear := f.HasRankFilter(), f.HasYearFilter()

	var n float64
	switch {
	case !hasRank && !hasYear:
		n = math.Round(s.YearAll)
	case hasRank && !hasYear:
		n = math.Min(math.Round(s.Rank/RankDivisor), math.Round(s.YearAll))
	case !hasRank && hasYear:
		n = math.Round(s.YearInRange)
	default:
		n = math.Round((s.Rank + s.YearInRange) / 2)
	}
	if n < 0 {
		return 0, true
	}
	return int(n), false
}

// MetricEngine recomputes publication counts across a store.
type MetricEngine struct {
	// Now supplies the clock used to bound valid years. Defaults to time.Now.
	Now func() time.Time
}

// NewMetricEngine returns an engine using the wall clock.
func NewMetricEngine() *MetricEngine {
	return &MetricEngine{Now: time.Now}
}

// CurrentYear returns the engine's current year.
func (m *MetricEngine) CurrentYear() int {
	if m == nil || m.Now == nil {
		return time.Now().Year()
	}
	return m.Now().Year()
}

// Recompute sets PubCount on every edge of every tier and returns the
// number of edges whose count is positive. Edges whose count came out
// negative are set to 0 and logged.
func (m *MetricEngine) Recompute(s *Store, f Filters) int {
	year := m.CurrentYear()

	s.mu.Lock()
	defer s.mu.Unlock()

	positive, clamped := 0, 0
	for _, t := range Tiers {
		for _, e := range s.tiers[t].byKey {
			n, neg := pubCount(e, f, year)
			e.PubCount = n
			if neg {
				clamped++
			}
			if n > 0 {
				positive++
			}
		}
	}
	if clamped > 0 {
		logger.Named("metric").Warnw("negative publication counts clamped to 0",
			logger.FieldCount, clamped, logger.FieldOperation, "recompute")
	}
	s.metricsFresh = true
	s.metricsFor = f
	return positive
}
