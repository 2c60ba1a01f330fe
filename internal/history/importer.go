package history

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"controlos-backend/internal/logger"
	"controlos-backend/internal/models"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const maxXLSRows = 100000

var (
	ErrEmptyWorksheet = errors.New("worksheet is empty")
	ErrNoWorksheet    = errors.New("no worksheet found")
	ErrMissingColumns = errors.New("header must contain date, timeslot, sales and gc columns")
)

var headerAliases = map[string]string{
	"date":        "date",
	"day":         "date",
	"timeslot":    "timeslot",
	"time slot":   "timeslot",
	"slot":        "timeslot",
	"hour":        "timeslot",
	"sales":       "sales",
	"net sales":   "sales",
	"revenue":     "sales",
	"gc":          "gc",
	"guests":      "gc",
	"guest count": "gc",
	"tc":          "gc",
}

type Result struct {
	ImportedRows int  `json:"imported_rows"`
	SkippedRows  int  `json:"skipped_rows"`
	DaysCreated  int  `json:"days_created"`
	DaysSkipped  int  `json:"days_skipped"`
	Shared       bool `json:"shared"`
}

// ReadRows returns every row of the first worksheet. Legacy .xls goes through
// extrame/xls, everything else through excelize with raw cell values so dates
// arrive as serial numbers.
func ReadRows(data []byte, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, ErrNoWorksheet
		}
		rows := workbook.ReadAllCells(maxXLSRows)
		if len(rows) == 0 {
			return nil, ErrEmptyWorksheet
		}
		return rows, nil

	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, ErrNoWorksheet
		}
		rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, ErrEmptyWorksheet
		}
		return rows, nil
	}
}

func normalizeHeader(header string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(header, "_", " "))), " ")
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseRows turns long-format rows (date | timeslot | sales | gc) into one entry
// per date. The header may sit below a few title rows. Rows that fail to parse are
// counted as skipped.
func ParseRows(rows [][]string) (entries []models.HistoryEntry, imported, skipped int, err error) {
	headerIdx := -1
	cols := map[string]int{}
	for i, row := range rows {
		found := map[string]int{}
		for j, cell := range row {
			if key, ok := headerAliases[normalizeHeader(cell)]; ok {
				if _, dup := found[key]; !dup {
					found[key] = j
				}
			}
		}
		if len(found) == 4 {
			headerIdx, cols = i, found
			break
		}
	}
	if headerIdx < 0 {
		return nil, 0, 0, ErrMissingColumns
	}

	byDate := map[string]*models.HistoryEntry{}
	for _, row := range rows[headerIdx+1:] {
		if isBlank(row) {
			continue
		}

		date, ok := ParseDate(cellValue(row, cols["date"]))
		slot := cellValue(row, cols["timeslot"])
		sales, salesOK := ParseNumber(cellValue(row, cols["sales"]))
		gc, gcOK := ParseNumber(cellValue(row, cols["gc"]))
		if !ok || slot == "" || !salesOK || !gcOK || sales < 0 || gc < 0 {
			skipped++
			continue
		}

		key := date.Format("2006-01-02")
		entry, exists := byDate[key]
		if !exists {
			entry = &models.HistoryEntry{
				Date:      date,
				DayOfWeek: int(date.Weekday()),
				Slots:     models.NewJSON(map[string]models.SlotFigures{}),
			}
			byDate[key] = entry
		}

		fig := entry.Slots.Data[slot]
		fig.Sales += sales
		fig.GC += int(gc + 0.5)
		entry.Slots.Data[slot] = fig
		imported++
	}

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries = make([]models.HistoryEntry, 0, len(keys))
	for _, k := range keys {
		e := byDate[k]
		for _, fig := range e.Slots.Data {
			e.TotalSales += fig.Sales
			e.TotalGC += fig.GC
		}
		entries = append(entries, *e)
	}
	return entries, imported, skipped, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "2006/01/02", "02.01.2006"}

// ParseDate accepts ISO dates, day-first dates and Excel serial numbers.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	// timestamps exported with a time part
	if d, _, ok := strings.Cut(raw, " "); ok {
		raw = d
	}
	if d, _, ok := strings.Cut(raw, "T"); ok && len(d) == 10 {
		raw = d
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= 1 && serial < 2958466 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// ParseNumber reads plain, thousands-separated and decimal-comma numbers.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(" ", "", "\u00a0", "", "€", "", "$", "", "£", "").Replace(s)
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Store creates entries for restaurantID, skipping dates that already exist.
func Store(db *gorm.DB, restaurantID uint, entries []models.HistoryEntry) (created, skipped int, err error) {
	if len(entries) == 0 {
		return 0, 0, nil
	}

	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		dates = append(dates, e.Date.Format("2006-01-02"))
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var existing []models.HistoryEntry
		if err := tx.Select("date").Where("restaurant_id = ? AND date IN ?", restaurantID, dates).Find(&existing).Error; err != nil {
			return err
		}
		taken := make(map[string]struct{}, len(existing))
		for _, e := range existing {
			taken[e.Date.Format("2006-01-02")] = struct{}{}
		}

		fresh := make([]models.HistoryEntry, 0, len(entries))
		for _, e := range entries {
			if _, ok := taken[e.Date.Format("2006-01-02")]; ok {
				skipped++
				continue
			}
			e.ID = 0
			e.RestaurantID = restaurantID
			fresh = append(fresh, e)
		}
		if len(fresh) == 0 {
			return nil
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return err
		}
		created = len(fresh)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, skipped, nil
}

// Importer runs spreadsheet imports. Resubmitting the same file for the same
// restaurant while the first upload is still running joins that upload.
type Importer struct {
	db    *gorm.DB
	group singleflight.Group
}

func NewImporter(db *gorm.DB) *Importer {
	return &Importer{db: db}
}

func (im *Importer) Import(ctx context.Context, restaurantID uint, filename string, data []byte) (Result, error) {
	key := fmt.Sprintf("%d:%x", restaurantID, sha256.Sum256(data))

	v, err, shared := im.group.Do(key, func() (any, error) {
		rows, err := ReadRows(data, filename)
		if err != nil {
			return Result{}, err
		}
		entries, imported, skipped, err := ParseRows(rows)
		if err != nil {
			return Result{}, err
		}
		created, existing, err := Store(im.db.WithContext(ctx), restaurantID, entries)
		if err != nil {
			return Result{}, err
		}

		logger.InfoLog(ctx, "history import %s: %d rows, %d skipped, %d days created, %d days already present",
			filename, imported, skipped, created, existing)

		return Result{
			ImportedRows: imported,
			SkippedRows:  skipped,
			DaysCreated:  created,
			DaysSkipped:  existing,
		}, nil
	})
	if err != nil {
		return Result{}, err
	}

	res := v.(Result)
	res.Shared = shared
	return res, nil
}
