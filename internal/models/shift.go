package models

type ShiftType string

const (
	ShiftOpening   ShiftType = "opening"
	ShiftMidday    ShiftType = "midday"
	ShiftClosing   ShiftType = "closing"
	ShiftOvernight ShiftType = "overnight"
)

// ShiftTypes lists every shift in the order of the day.
var ShiftTypes = []ShiftType{ShiftOpening, ShiftMidday, ShiftClosing, ShiftOvernight}

func ParseShiftType(s string) (ShiftType, bool) {
	for _, st := range ShiftTypes {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// PerShift holds one value per shift type. Use At to address a field by enum.
type PerShift[T any] struct {
	Opening   T `json:"opening" yaml:"opening"`
	Midday    T `json:"midday" yaml:"midday"`
	Closing   T `json:"closing" yaml:"closing"`
	Overnight T `json:"overnight" yaml:"overnight"`
}

// At returns a pointer to the field for shift, or nil for an unknown shift.
func (p *PerShift[T]) At(shift ShiftType) *T {
	switch shift {
	case ShiftOpening:
		return &p.Opening
	case ShiftMidday:
		return &p.Midday
	case ShiftClosing:
		return &p.Closing
	case ShiftOvernight:
		return &p.Overnight
	}
	return nil
}

type Area string

const (
	AreaKitchen  Area = "kitchen"
	AreaService  Area = "service"
	AreaDrive    Area = "drive"
	AreaDelivery Area = "delivery"
)

var Areas = []Area{AreaKitchen, AreaService, AreaDrive, AreaDelivery}

func ParseArea(s string) (Area, bool) {
	for _, a := range Areas {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// PerArea holds one value per business area.
type PerArea[T any] struct {
	Kitchen  T `json:"kitchen" yaml:"kitchen"`
	Service  T `json:"service" yaml:"service"`
	Drive    T `json:"drive" yaml:"drive"`
	Delivery T `json:"delivery" yaml:"delivery"`
}

func (p *PerArea[T]) At(area Area) *T {
	switch area {
	case AreaKitchen:
		return &p.Kitchen
	case AreaService:
		return &p.Service
	case AreaDrive:
		return &p.Drive
	case AreaDelivery:
		return &p.Delivery
	}
	return nil
}
