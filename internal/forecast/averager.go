package forecast

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"controlos-backend/internal/models"
)

// Fixed guest-count split per ordering channel.
const (
	ShareCounter  = 0.15
	ShareSOK      = 0.73
	ShareDrive    = 0.05
	ShareDelivery = 0.07
)

type SlotAverage struct {
	Sales int `json:"sales"`
	GC    int `json:"gc"`
}

type Forecast struct {
	Days       int                    `json:"days"`
	TotalSales int                    `json:"total_sales"`
	TotalGC    int                    `json:"total_gc"`
	Slots      map[string]SlotAverage `json:"slots"`
}

// round is half-up, so 2.5 -> 3 and -2.5 -> -2.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Average returns the per-day mean of the selected entries, or nil for an empty
// selection. Every field is rounded on its own, so slot sums may drift from the
// rounded totals. Slots missing from an entry count as zero.
func Average(selected []models.HistoryEntry, keys []string) *Forecast {
	if len(selected) == 0 {
		return nil
	}
	n := float64(len(selected))

	var sumSales, sumGC float64
	slotSales := make(map[string]float64, len(keys))
	slotGC := make(map[string]float64, len(keys))

	for _, e := range selected {
		sumSales += e.TotalSales
		sumGC += float64(e.TotalGC)
		for _, k := range keys {
			fig, ok := e.Slots.Data[k]
			if !ok {
				continue
			}
			slotSales[k] += fig.Sales
			slotGC[k] += float64(fig.GC)
		}
	}

	avg := &Forecast{
		Days:       len(selected),
		TotalSales: round(sumSales / n),
		TotalGC:    round(sumGC / n),
		Slots:      make(map[string]SlotAverage, len(keys)),
	}
	for _, k := range keys {
		avg.Slots[k] = SlotAverage{
			Sales: round(slotSales[k] / n),
			GC:    round(slotGC[k] / n),
		}
	}
	return avg
}

// SlotKeys returns every timeslot key present in entries, sorted.
func SlotKeys(entries []models.HistoryEntry) []string {
	seen := make(map[string]struct{})
	for _, e := range entries {
		for k := range e.Slots.Data {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SplitChannels rounds each channel independently; the parts may not sum to gc.
func SplitChannels(gc int) models.ChannelGC {
	g := float64(gc)
	return models.ChannelGC{
		Counter:  round(g * ShareCounter),
		SOK:      round(g * ShareSOK),
		Drive:    round(g * ShareDrive),
		Delivery: round(g * ShareDelivery),
	}
}

// HourLabel turns "19:00-20:00" into "19h-20h".
func HourLabel(key string) string {
	return strings.ReplaceAll(key, ":00", "h")
}

// Project expands an average into one row per timeslot in keys order.
func Project(avg *Forecast, keys []string) []models.HourlyProjection {
	if avg == nil {
		return []models.HourlyProjection{}
	}
	out := make([]models.HourlyProjection, 0, len(keys))
	for _, k := range keys {
		slot := avg.Slots[k]
		out = append(out, models.HourlyProjection{
			Hour:       HourLabel(k),
			Timeslot:   k,
			TotalSales: slot.Sales,
			TotalGC:    slot.GC,
			ChannelGC:  SplitChannels(slot.GC),
		})
	}
	return out
}

// FilterByDayOfWeek keeps entries whose DayOfWeek equals dow (0=Sunday).
func FilterByDayOfWeek(entries []models.HistoryEntry, dow int) []models.HistoryEntry {
	out := make([]models.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.DayOfWeek == dow {
			out = append(out, e)
		}
	}
	return out
}

// StartHour reads the leading hour of a timeslot key such as "07:00-08:00".
func StartHour(key string) (int, bool) {
	head, _, _ := strings.Cut(strings.TrimSpace(key), ":")
	head, _, _ = strings.Cut(head, "h")
	h, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

// ShiftSales buckets projected sales into shifts by each slot's start hour.
// A slot whose hour falls in no window is ignored.
func ShiftSales(projections []models.HourlyProjection, windows models.PerShift[models.ShiftWindow]) models.PerShift[float64] {
	var out models.PerShift[float64]
	for _, p := range projections {
		h, ok := StartHour(p.Timeslot)
		if !ok {
			continue
		}
		for _, shift := range models.ShiftTypes {
			if windows.At(shift).Contains(h) {
				*out.At(shift) += float64(p.TotalSales)
				break
			}
		}
	}
	return out
}
