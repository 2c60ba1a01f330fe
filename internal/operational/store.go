// Package operational keeps month-level operating figures outside the restaurant snapshot.
package operational

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=operational

var (
	ErrInvalidMonth = errors.New("month must be YYYY-MM")
	ErrInvalidDay   = errors.New("day is outside the month")
	ErrStore        = errors.New("operational store error")
)

type Targets struct {
	Sales        float64 `json:"sales"`
	GC           int     `json:"gc"`
	LaborPercent float64 `json:"labor_percent"`
}

type DayFigures struct {
	Sales      float64 `json:"sales"`
	GC         int     `json:"gc"`
	LaborHours float64 `json:"labor_hours"`
	Waste      float64 `json:"waste"`
	Note       string  `json:"note,omitempty"`
}

// Record is one month of figures. Days are keyed by day of month ("1".."31").
type Record struct {
	Month     string                `json:"month"`
	Targets   Targets               `json:"targets"`
	Days      map[string]DayFigures `json:"days"`
	UpdatedAt *time.Time            `json:"updated_at,omitempty"`
}

// Empty returns the record served for a month nothing was saved for.
func Empty(month string) *Record {
	return &Record{Month: month, Days: map[string]DayFigures{}}
}

// ParseMonth validates a YYYY-MM key.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return t, nil
}

func (r *Record) Validate() error {
	start, err := ParseMonth(r.Month)
	if err != nil {
		return err
	}
	last := start.AddDate(0, 1, -1).Day()
	for key := range r.Days {
		day, err := strconv.Atoi(key)
		if err != nil || day < 1 || day > last {
			return fmt.Errorf("%w: %s", ErrInvalidDay, key)
		}
	}
	return nil
}

type Summary struct {
	Sales         float64 `json:"sales"`
	GC            int     `json:"gc"`
	LaborHours    float64 `json:"labor_hours"`
	Waste         float64 `json:"waste"`
	AverageTicket float64 `json:"average_ticket"`
	DaysRecorded  int     `json:"days_recorded"`
	SalesVsTarget float64 `json:"sales_vs_target"`
}

// Summarize totals the recorded days. Ratios stay zero when their divisor is zero.
func (r *Record) Summarize() Summary {
	var s Summary
	for _, d := range r.Days {
		s.Sales += d.Sales
		s.GC += d.GC
		s.LaborHours += d.LaborHours
		s.Waste += d.Waste
	}
	s.DaysRecorded = len(r.Days)
	if s.GC > 0 {
		s.AverageTicket = s.Sales / float64(s.GC)
	}
	if r.Targets.Sales > 0 {
		s.SalesVsTarget = s.Sales / r.Targets.Sales
	}
	return s
}

type Store interface {
	// Get returns the stored record, or an empty one when the month has none.
	Get(ctx context.Context, restaurantID uint, month string) (*Record, error)
	Put(ctx context.Context, restaurantID uint, rec *Record) error
	Delete(ctx context.Context, restaurantID uint, month string) error
	// ListMonths returns stored months, newest first.
	ListMonths(ctx context.Context, restaurantID uint) ([]string, error)
}
