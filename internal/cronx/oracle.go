// Package cronx implements the OccurrenceOracle: given a cron expression
// and a reference instant, compute the next occurrence or a bounded list
// of occurrences. It wraps github.com/robfig/cron/v3's expression parser,
// the same library used for cron scheduling elsewhere in this pack
// (minisource/scheduler, ErlanBelekov/dist-job-scheduler).
package cronx

import (
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidExpression is returned when the cron expression cannot be
// parsed.
var ErrInvalidExpression = errors.New("cronx: invalid expression")

// ErrInvalidSeriesBounds is returned when the caller asks for the full or
// last occurrence list of a series with no End bound.
var ErrInvalidSeriesBounds = errors.New("cronx: series has no end bound")

var parser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Oracle computes occurrences for standard five-field cron expressions.
// It is side-effect free and deterministic: the same expression and
// reference instant always produce the same result.
type Oracle struct{}

// New returns an Oracle.
func New() *Oracle { return &Oracle{} }

// Next returns the next occurrence strictly after "after", or ok=false if
// the expression is empty/whitespace. An unparseable non-empty expression
// returns ErrInvalidExpression.
func (Oracle) Next(expression string, after time.Time) (t time.Time, ok bool, err error) {
	if strings.TrimSpace(expression) == "" {
		return time.Time{}, false, nil
	}
	schedule, err := parser.Parse(expression)
	if err != nil {
		return time.Time{}, false, ErrInvalidExpression
	}
	return schedule.Next(after.UTC()).UTC(), true, nil
}

// Between returns every occurrence strictly after "from" and less than or
// equal to "to", in ascending order. It never materializes an infinite
// series: callers must supply a bounded "to." A caller requesting the
// full/last occurrence list of an unbounded series gets
// ErrInvalidSeriesBounds, enforced by callers passing a real "to" rather
// than this function, which always requires one.
func (Oracle) Between(expression string, from, to time.Time) ([]time.Time, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, nil
	}
	if to.Before(from) {
		return nil, ErrInvalidSeriesBounds
	}
	schedule, err := parser.Parse(expression)
	if err != nil {
		return nil, ErrInvalidExpression
	}

	from = from.UTC()
	to = to.UTC()

	var occurrences []time.Time
	cursor := from
	for {
		next := schedule.Next(cursor)
		if next.IsZero() || next.After(to) {
			break
		}
		occurrences = append(occurrences, next)
		cursor = next
	}
	return occurrences, nil
}

// FiniteSeriesOccurrences returns every occurrence of a bounded series
// (Start, End] from "from". Requesting this for a series with no End is
// an error, not an empty slice.
func (o Oracle) FiniteSeriesOccurrences(expression string, from time.Time, end *time.Time) ([]time.Time, error) {
	if end == nil {
		return nil, ErrInvalidSeriesBounds
	}
	return o.Between(expression, from, *end)
}

// LastOccurrence returns the final occurrence of a bounded series, or
// ok=false if the series has no occurrences within bounds. Requesting
// this for a series with no End is an error.
func (o Oracle) LastOccurrence(expression string, from time.Time, end *time.Time) (t time.Time, ok bool, err error) {
	occurrences, err := o.FiniteSeriesOccurrences(expression, from, end)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(occurrences) == 0 {
		return time.Time{}, false, nil
	}
	return occurrences[len(occurrences)-1], true, nil
}
