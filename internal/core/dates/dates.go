// Package dates synthesizes the "date added" of catalog products and
// filters products by calendar date ranges.
package dates

import (
	"math"
	"time"

	"github.com/niksmo/producthub/internal/core/domain"
)

// Window is the span preceding "now" that synthesized dates fall into.
const Window = 180 * 24 * time.Hour

func seededRandom(seed int) float64 {
	x := math.Sin(float64(seed)) * 10000
	return x - math.Floor(x)
}

// DateAdded returns the synthesized date of the product with the given id
// relative to the current time.
func DateAdded(id int) time.Time {
	return DateAddedAt(id, time.Now())
}

// DateAddedAt maps id to a reproducible instant in [now-Window, now].
//
// The result is a function of id and now only, so the same id yields
// different absolute dates as now moves.
func DateAddedAt(id int, now time.Time) time.Time {
	nowMs := now.UnixMilli()
	span := Window.Milliseconds()
	start := nowMs - span
	offset := int64(seededRandom(id) * float64(span))
	t := time.UnixMilli(start + offset).In(now.Location())
	// ms truncation of now may push small offsets below the window.
	if lo := now.Add(-Window); t.Before(lo) {
		return lo
	}
	return t
}

// Enrich returns a copy of ps where every product carries DateAdded
// computed against the single instant now.
func Enrich(ps []domain.Product, now time.Time) []domain.Product {
	out := make([]domain.Product, len(ps))
	for i, p := range ps {
		out[i] = EnrichOne(p, now)
	}
	return out
}

// EnrichOne is Enrich for a single product.
func EnrichOne(p domain.Product, now time.Time) domain.Product {
	p.Images = append([]string(nil), p.Images...)
	p.DateAdded = DateAddedAt(p.ID, now)
	return p
}

// StartOfDay returns 00:00:00.000 of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// Bounds returns the inclusive instants selected by r.
//
// A single present bound selects that one day, not an open range.
func Bounds(r domain.DateRange, loc *time.Location) (from, to time.Time, ok bool) {
	switch {
	case !r.From.IsZero() && !r.To.IsZero():
		return StartOfDay(r.From, loc), EndOfDay(r.To, loc), true
	case !r.From.IsZero():
		return StartOfDay(r.From, loc), EndOfDay(r.From, loc), true
	case !r.To.IsZero():
		return StartOfDay(r.To, loc), EndOfDay(r.To, loc), true
	}
	return time.Time{}, time.Time{}, false
}

// FilterByDateRange keeps the products whose DateAdded falls inside r.
// Undated products are always kept. An empty range returns ps as is.
func FilterByDateRange(
	ps []domain.Product, r domain.DateRange, loc *time.Location,
) []domain.Product {
	if loc == nil {
		loc = time.Local
	}

	from, to, ok := Bounds(r, loc)
	if !ok {
		return ps
	}

	out := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		if !p.HasDate() || inRange(p.DateAdded, from, to) {
			out = append(out, p)
		}
	}
	return out
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
