package settings

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"controlos-backend/internal/models"

	"gopkg.in/yaml.v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	defaultsOnce sync.Once
	defaults     Document
	defaultsErr  error
)

var (
	ErrNoTimeslots       = errors.New("at least one timeslot is required")
	ErrDuplicateTimeslot = errors.New("duplicate timeslot")
	ErrInvalidWindow     = errors.New("shift window hours must be within 0-24")
	ErrInvalidStation    = errors.New("station id must be set and unique")
)

// Document is the editable part of AppSettings.
type Document struct {
	Timeslots      []string                            `yaml:"timeslots" json:"timeslots"`
	ShiftWindows   models.PerShift[models.ShiftWindow] `yaml:"shift_windows" json:"shift_windows"`
	CustomStations models.PerArea[[]models.Station]    `yaml:"custom_stations" json:"custom_stations"`
}

func parseDocument(raw []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("parse settings yaml: %w", err)
	}
	return doc, nil
}

// Defaults returns the built-in settings. Callers get their own copy of the slices.
func Defaults() (Document, error) {
	defaultsOnce.Do(func() {
		defaults, defaultsErr = parseDocument(defaultsYAML)
	})
	if defaultsErr != nil {
		return Document{}, defaultsErr
	}
	return cloneDocument(defaults), nil
}

func cloneDocument(d Document) Document {
	out := Document{
		Timeslots:    append([]string(nil), d.Timeslots...),
		ShiftWindows: d.ShiftWindows,
	}
	for _, area := range models.Areas {
		*out.CustomStations.At(area) = append([]models.Station(nil), *d.CustomStations.At(area)...)
	}
	return out
}

func (d Document) Validate() error {
	if len(d.Timeslots) == 0 {
		return ErrNoTimeslots
	}
	seen := make(map[string]struct{}, len(d.Timeslots))
	for _, ts := range d.Timeslots {
		key := strings.TrimSpace(ts)
		if key == "" {
			return ErrNoTimeslots
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTimeslot, key)
		}
		seen[key] = struct{}{}
	}

	for _, shift := range models.ShiftTypes {
		w := d.ShiftWindows.At(shift)
		if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 24 {
			return fmt.Errorf("%w (%s)", ErrInvalidWindow, shift)
		}
	}

	ids := make(map[string]struct{})
	for _, area := range models.Areas {
		for _, st := range *d.CustomStations.At(area) {
			if st.ID == "" {
				return ErrInvalidStation
			}
			if _, ok := ids[st.ID]; ok {
				return fmt.Errorf("%w: %s", ErrInvalidStation, st.ID)
			}
			ids[st.ID] = struct{}{}
		}
	}
	return nil
}

func (d Document) apply(s *models.AppSettings) {
	s.Timeslots = models.NewJSON(d.Timeslots)
	s.ShiftWindows = models.NewJSON(d.ShiftWindows)
	s.CustomStations = models.NewJSON(d.CustomStations)
}

// FromModel extracts the document stored on s.
func FromModel(s models.AppSettings) Document {
	return Document{
		Timeslots:      s.Timeslots.Data,
		ShiftWindows:   s.ShiftWindows.Data,
		CustomStations: s.CustomStations.Data,
	}
}

// Load returns the restaurant's settings, falling back to the defaults when none are saved.
func Load(db *gorm.DB, restaurantID uint) (models.AppSettings, error) {
	var s models.AppSettings
	err := db.Where("restaurant_id = ?", restaurantID).First(&s).Error
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AppSettings{}, err
	}

	doc, err := Defaults()
	if err != nil {
		return models.AppSettings{}, err
	}
	s = models.AppSettings{RestaurantID: restaurantID}
	doc.apply(&s)
	return s, nil
}

// Save upserts the settings row for restaurantID.
func Save(db *gorm.DB, restaurantID uint, doc Document) (models.AppSettings, error) {
	s := models.AppSettings{RestaurantID: restaurantID}
	doc.apply(&s)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "restaurant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"timeslots", "shift_windows", "custom_stations", "updated_at"}),
	}).Create(&s).Error
	if err != nil {
		return models.AppSettings{}, err
	}
	return s, nil
}
