package timeseries

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Point is one observation in a daily series.
type Point struct {
	Day   Date
	Value decimal.Decimal
}

// Series is a sparse daily value series kept in ascending day order.
// A day appears at most once; appending to an existing day replaces it.
// The zero value is an empty series ready to use.
type Series struct {
	days   []Date
	values []decimal.Decimal
}

// NewSeries builds a series from points. Later duplicates win.
func NewSeries(points ...Point) *Series {
	s := &Series{}
	for _, p := range points {
		s.Append(p.Day, p.Value)
	}
	return s
}

// Len returns the number of observations.
func (s *Series) Len() int { return len(s.days) }

// Append records a value for a day, replacing any existing observation.
func (s *Series) Append(day Date, value decimal.Decimal) {
	i := s.search(day)
	if i < len(s.days) && s.days[i] == day {
		s.values[i] = value
		return
	}
	s.days = append(s.days, Date{})
	s.values = append(s.values, decimal.Decimal{})
	copy(s.days[i+1:], s.days[i:])
	copy(s.values[i+1:], s.values[i:])
	s.days[i] = day
	s.values[i] = value
}

// Get returns the value observed exactly on day.
func (s *Series) Get(day Date) (decimal.Decimal, bool) {
	i := s.search(day)
	if i < len(s.days) && s.days[i] == day {
		return s.values[i], true
	}
	return decimal.Decimal{}, false
}

// ValueAsOf returns the value on day, or the most recent value before it.
// This is the carry-forward lookup: weekends and holidays resolve to the
// last trading day's observation. Returns false when no observation exists
// on or before day.
func (s *Series) ValueAsOf(day Date) (decimal.Decimal, bool) {
	i := s.search(day)
	if i < len(s.days) && s.days[i] == day {
		return s.values[i], true
	}
	if i == 0 {
		return decimal.Decimal{}, false
	}
	return s.values[i-1], true
}

// First returns the earliest observation.
func (s *Series) First() (Point, bool) {
	if len(s.days) == 0 {
		return Point{}, false
	}
	return Point{Day: s.days[0], Value: s.values[0]}, true
}

// FirstPositive returns the earliest observation with a value greater than
// zero. Used to establish the base for percent-change computation.
func (s *Series) FirstPositive() (Point, bool) {
	for i, v := range s.values {
		if v.IsPositive() {
			return Point{Day: s.days[i], Value: v}, true
		}
	}
	return Point{}, false
}

// Points returns all observations in ascending day order.
func (s *Series) Points() []Point {
	points := make([]Point, len(s.days))
	for i := range s.days {
		points[i] = Point{Day: s.days[i], Value: s.values[i]}
	}
	return points
}

// search returns the insertion index for day in the sorted day slice.
func (s *Series) search(day Date) int {
	return sort.Search(len(s.days), func(i int) bool {
		return !s.days[i].Before(day)
	})
}
