// Package rules переводит каталожные нормы расхода в количества и деньги.
package rules

import (
	"strings"

	"renovation-estimator/internal/estimator/aggregate"
	"renovation-estimator/internal/estimator/models"
	"renovation-estimator/internal/estimator/netting"
)

// DefaultWindowHeightFactor: доля высоты, по которой считаются работы по окнам.
const DefaultWindowHeightFactor = 2.0 / 3.0

// Factors собирает бизнес-коэффициенты, вынесенные в конфигурацию.
type Factors struct {
	WindowHeightFactor float64
}

func DefaultFactors() Factors {
	return Factors{WindowHeightFactor: DefaultWindowHeightFactor}
}

// Quantities: физические величины, против которых вычисляются нормы.
// Stages содержит только этапы с доступным масштабом.
type Quantities struct {
	Stages         map[models.Stage]aggregate.PhysicalTotals
	Rooms          []netting.RoomQuantities
	Openings       []netting.PhysicalOpening
	CeilingHeightM float64
}

// Line: результат применения одной нормы. Для помещений и проёмов по строке на объект.
type Line struct {
	EntryID            string             `json:"entryId"`
	Name               string             `json:"name"`
	Unit               string             `json:"unit,omitempty"`
	Stage              models.Stage       `json:"stage"`
	Kind               models.CatalogKind `json:"kind"`
	IsWork             bool               `json:"isWork"`
	RoomID             string             `json:"roomId,omitempty"`
	OpeningID          string             `json:"openingId,omitempty"`
	BasisValue         float64            `json:"basisValue"`
	ConsumptionPerUnit float64            `json:"consumptionPerUnit"`
	RequiredQty        float64            `json:"requiredQty"`
	PurchasePrice      float64            `json:"purchasePrice"`
	SellPrice          float64            `json:"sellPrice"`
	Cost               float64            `json:"cost"`
	Revenue            float64            `json:"revenue"`
	Profit             float64            `json:"profit"`
	Resolved           bool               `json:"resolved"`
}

// ============================================================
// Engine
// ============================================================

type Engine struct {
	Factors Factors
}

func New(f Factors) *Engine {
	return &Engine{Factors: f}
}

// Evaluate применяет норму к значению базы. Округление не выполняется.
func Evaluate(entry models.CatalogEntry, basis float64) Line {
	qty := entry.ConsumptionPerUnit * basis
	cost := qty * entry.PurchasePrice
	revenue := qty * entry.SellPrice
	return Line{
		EntryID:            entry.ID,
		Name:               entry.Name,
		Unit:               entry.Unit,
		Stage:              entry.Stage,
		Kind:               entry.Kind,
		IsWork:             entry.IsWork,
		BasisValue:         basis,
		ConsumptionPerUnit: entry.ConsumptionPerUnit,
		RequiredQty:        qty,
		PurchasePrice:      entry.PurchasePrice,
		SellPrice:          entry.SellPrice,
		Cost:               cost,
		Revenue:            revenue,
		Profit:             revenue - cost,
		Resolved:           true,
	}
}

func unresolved(entry models.CatalogEntry) Line {
	l := Evaluate(entry, 0)
	l.Resolved = false
	return l
}

// BasisValue возвращает суммарное значение базы для записи. ok=false: данных нет,
// запись даёт нулевое количество.
func (e *Engine) BasisValue(entry models.CatalogEntry, q Quantities) (float64, bool) {
	switch entry.Kind {
	case models.KindStage:
		return e.triggerBasis(entry.TriggerType, q)

	case models.KindRoomType:
		rooms := matchingRooms(entry, q.Rooms)
		if len(rooms) == 0 {
			return 0, false
		}
		var sum float64
		for _, r := range rooms {
			sum += roomBasis(entry.Basis, r)
		}
		return sum, true

	case models.KindOpening:
		openings := matchingOpenings(entry, q.Openings)
		if len(openings) == 0 {
			return 0, false
		}
		var sum float64
		for _, o := range openings {
			sum += openingBasis(entry.Basis, o)
		}
		return sum, true

	case models.KindBaseboard:
		totals, ok := q.Stages[entry.Stage]
		if !ok {
			return 0, false
		}
		if PerCorner(entry.Unit) {
			return float64(totals.CornerCount), true
		}
		return totals.TotalLengthM, true
	}
	return 0, false
}

// triggerBasis: старые правила уровня этапа. Комнаты, двери и окна берутся
// из разметки, светильники и розетки: из электрики.
func (e *Engine) triggerBasis(trigger models.Tag, q Quantities) (float64, bool) {
	h := q.CeilingHeightM

	switch trigger {
	case models.TagRoom, models.TagDoor, models.TagWindow:
		m, ok := q.Stages[models.StageMarkup]
		if !ok {
			return 0, false
		}
		switch trigger {
		case models.TagRoom:
			return m.RoomPerimeterM*h + 2*m.RoomFloorAreaM2, true
		case models.TagDoor:
			return m.DoorLengthM * h, true
		default:
			return m.WindowLengthM * (e.Factors.WindowHeightFactor * h), true
		}

	case models.TagSpotlight, models.TagBra, models.TagOutlet, models.TagSwitch:
		el, ok := q.Stages[models.StageElectrical]
		if !ok {
			return 0, false
		}
		return float64(el.Counts[trigger]), true

	case models.TagLED:
		el, ok := q.Stages[models.StageElectrical]
		if !ok {
			return 0, false
		}
		return el.LedLengthM, true
	}
	return 0, false
}

// PerCorner: плинтус по углам, если в единице есть «угол» или «corner».
func PerCorner(unit string) bool {
	u := strings.ToLower(unit)
	return strings.Contains(u, "угол") || strings.Contains(u, "corner")
}

// ============================================================
// Per-object evaluation
// ============================================================

// EvaluateRooms даёт по строке на каждое помещение подходящего типа.
func (e *Engine) EvaluateRooms(entry models.CatalogEntry, rooms []netting.RoomQuantities) []Line {
	matched := matchingRooms(entry, rooms)
	if len(matched) == 0 {
		return []Line{unresolved(entry)}
	}
	out := make([]Line, 0, len(matched))
	for _, r := range matched {
		l := Evaluate(entry, roomBasis(entry.Basis, r))
		l.RoomID = r.RoomID
		out = append(out, l)
	}
	return out
}

// EvaluateOpenings даёт по строке на каждый физический проём подходящего типа.
func (e *Engine) EvaluateOpenings(entry models.CatalogEntry, openings []netting.PhysicalOpening) []Line {
	matched := matchingOpenings(entry, openings)
	if len(matched) == 0 {
		return []Line{unresolved(entry)}
	}
	out := make([]Line, 0, len(matched))
	for _, o := range matched {
		l := Evaluate(entry, openingBasis(entry.Basis, o))
		l.OpeningID = o.ID
		out = append(out, l)
	}
	return out
}

// EvaluateCatalog применяет все записи каталога. Ошибок не бывает:
// неразрешимая база даёт строку с нулём и Resolved=false.
func (e *Engine) EvaluateCatalog(entries []models.CatalogEntry, q Quantities) []Line {
	var out []Line
	for _, entry := range entries {
		switch entry.Kind {
		case models.KindRoomType:
			out = append(out, e.EvaluateRooms(entry, q.Rooms)...)
		case models.KindOpening:
			out = append(out, e.EvaluateOpenings(entry, q.Openings)...)
		default:
			basis, ok := e.BasisValue(entry, q)
			if !ok {
				out = append(out, unresolved(entry))
				continue
			}
			out = append(out, Evaluate(entry, basis))
		}
	}
	return out
}

// Totals суммирует строки без округления.
type Totals struct {
	Cost    float64 `json:"cost"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

func Sum(lines []Line) Totals {
	var t Totals
	for _, l := range lines {
		t.Cost += l.Cost
		t.Revenue += l.Revenue
		t.Profit += l.Profit
	}
	return t
}

func matchingRooms(entry models.CatalogEntry, rooms []netting.RoomQuantities) []netting.RoomQuantities {
	var out []netting.RoomQuantities
	for _, r := range rooms {
		if entry.RoomTypeID == "" || r.RoomTypeID == entry.RoomTypeID {
			out = append(out, r)
		}
	}
	return out
}

func matchingOpenings(entry models.CatalogEntry, openings []netting.PhysicalOpening) []netting.PhysicalOpening {
	var out []netting.PhysicalOpening
	for _, o := range openings {
		if entry.OpeningType == "" || o.OpeningType == entry.OpeningType {
			out = append(out, o)
		}
	}
	return out
}

func roomBasis(b models.Basis, r netting.RoomQuantities) float64 {
	switch b {
	case models.BasisFloorM2:
		return r.FloorAreaM2
	case models.BasisWallM2:
		return r.NetWallAreaM2
	}
	return 0
}

func openingBasis(b models.Basis, o netting.PhysicalOpening) float64 {
	switch b {
	case models.BasisOpeningM2:
		return o.AreaM2
	case models.BasisPerOpening:
		return 1
	}
	return 0
}
