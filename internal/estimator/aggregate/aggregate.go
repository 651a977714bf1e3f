// Package aggregate сворачивает примитивы этапа в итоговые величины.
package aggregate

import (
	"sort"

	"renovation-estimator/internal/estimator/geometry"
	"renovation-estimator/internal/estimator/models"
)

// ============================================================
// Stage totals
// ============================================================

// StageTotals хранит итоги этапа в пикселях. В базу не пишется.
type StageTotals struct {
	Stage          models.Stage `json:"stage"`
	PrimitiveCount int          `json:"primitiveCount"`
	LineCount      int          `json:"lineCount"`
	RectangleCount int          `json:"rectangleCount"`
	TotalLengthPx  float64      `json:"totalLengthPx"`
	TotalAreaPx2   float64      `json:"totalAreaPx2"`
	CornerCount    int          `json:"cornerCount"`

	// Разметка
	RoomCount       int     `json:"roomCount"`
	RoomPerimeterPx float64 `json:"roomPerimeterPx"`
	RoomAreaPx2     float64 `json:"roomAreaPx2"`
	DoorCount       int     `json:"doorCount"`
	DoorAreaPx2     float64 `json:"doorAreaPx2"`
	DoorLengthPx    float64 `json:"doorLengthPx"`
	WindowCount     int     `json:"windowCount"`
	WindowAreaPx2   float64 `json:"windowAreaPx2"`
	WindowLengthPx  float64 `json:"windowLengthPx"`

	// Электрика
	Counts      map[models.Tag]int `json:"counts"`
	LedLengthPx float64            `json:"ledLengthPx"`
}

// Stage сворачивает примитивы указанного этапа; остальные пропускаются.
// Обход идёт в порядке sorted, поэтому перестановка входа не меняет сумм.
func Stage(stage models.Stage, primitives []models.Primitive) StageTotals {
	totals := StageTotals{
		Stage:  stage,
		Counts: make(map[models.Tag]int),
	}

	for _, p := range sorted(primitives) {
		if p.Stage != stage || p.Shape == nil {
			continue
		}
		totals.add(p)
	}
	return totals
}

// Project считает итоги по всем этапам проекта.
func Project(primitives []models.Primitive) map[models.Stage]StageTotals {
	out := make(map[models.Stage]StageTotals, len(models.Stages))
	for _, st := range models.Stages {
		out[st] = Stage(st, primitives)
	}
	return out
}

func (t *StageTotals) add(p models.Primitive) {
	t.PrimitiveCount++

	switch shape := p.Shape.(type) {
	case models.LineShape:
		length := shape.LengthPx()
		t.LineCount++
		t.TotalLengthPx += length
		t.CornerCount += shape.Corners()
		t.addOpeningLength(p.Tag, length)
		if p.Tag == models.TagLED {
			t.LedLengthPx += length
		}

	case models.RectShape:
		t.RectangleCount++
		t.TotalAreaPx2 += shape.AreaPx2()
		t.TotalLengthPx += shape.LengthPx()
		t.addOpeningArea(p.Tag, shape.AreaPx2())
		t.addOpeningLength(p.Tag, shape.LengthPx())
		if p.Tag == models.TagLED {
			t.LedLengthPx += shape.LengthPx()
		}

	case models.PolygonShape:
		if t.Stage == models.StageMarkup {
			area, perimeter, ok := geometry.PolygonAreaAndPerimeter(shape.Points)
			if ok && (p.Tag == models.TagNone || p.Tag == models.TagRoom) {
				t.RoomCount++
				t.RoomPerimeterPx += perimeter
				t.RoomAreaPx2 += area
			}
			if ok {
				t.addOpeningArea(p.Tag, area)
			}
		}
	}

	if t.Stage == models.StageMarkup {
		switch p.Tag {
		case models.TagDoor:
			t.DoorCount++
		case models.TagWindow:
			t.WindowCount++
		}
	}

	if t.Stage == models.StageElectrical {
		for _, tag := range models.FixtureTags {
			if p.Tag == tag {
				t.Counts[tag]++
			}
		}
	}
}

// addOpeningArea учитывает площадь дверей и окон (только разметка).
func (t *StageTotals) addOpeningArea(tag models.Tag, area float64) {
	if t.Stage != models.StageMarkup {
		return
	}
	switch tag {
	case models.TagDoor:
		t.DoorAreaPx2 += area
	case models.TagWindow:
		t.WindowAreaPx2 += area
	}
}

func (t *StageTotals) addOpeningLength(tag models.Tag, length float64) {
	if t.Stage != models.StageMarkup {
		return
	}
	switch tag {
	case models.TagDoor:
		t.DoorLengthPx += length
	case models.TagWindow:
		t.WindowLengthPx += length
	}
}

// sorted упорядочивает по ID, а при пустых или повторяющихся ID по вкладу
// фигуры. Равные по ключу примитивы дают одинаковые слагаемые, поэтому сумма
// не зависит от порядка входа.
func sorted(primitives []models.Primitive) []models.Primitive {
	out := append([]models.Primitive(nil), primitives...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Type() != b.Type() {
			return a.Type() < b.Type()
		}
		if a.Tag != b.Tag {
			return a.Tag < b.Tag
		}
		la, aa := contribution(a)
		lb, ab := contribution(b)
		if la != lb {
			return la < lb
		}
		return aa < ab
	})
	return out
}

func contribution(p models.Primitive) (length, area float64) {
	if p.Shape == nil {
		return 0, 0
	}
	return p.Shape.LengthPx(), p.Shape.AreaPx2()
}

// ============================================================
// Physical units
// ============================================================

// Итоги этапа в метрах и м².
type PhysicalTotals struct {
	TotalLengthM    float64            `json:"totalLengthM"`
	TotalAreaM2     float64            `json:"totalAreaM2"`
	CornerCount     int                `json:"cornerCount"`
	RoomPerimeterM  float64            `json:"roomPerimeterM"`
	RoomFloorAreaM2 float64            `json:"roomFloorAreaM2"`
	DoorAreaM2      float64            `json:"doorAreaM2"`
	DoorLengthM     float64            `json:"doorLengthM"`
	WindowAreaM2    float64            `json:"windowAreaM2"`
	WindowLengthM   float64            `json:"windowLengthM"`
	LedLengthM      float64            `json:"ledLengthM"`
	Counts          map[models.Tag]int `json:"counts"`
}

// Physical переводит итоги в физические единицы. false: масштаба нет,
// значения недоступны.
func (t StageTotals) Physical(scale *models.Scale) (PhysicalTotals, bool) {
	if scale == nil || !scale.Valid() {
		return PhysicalTotals{}, false
	}

	counts := make(map[models.Tag]int, len(t.Counts))
	for k, v := range t.Counts {
		counts[k] = v
	}

	return PhysicalTotals{
		TotalLengthM:    scale.Meters(t.TotalLengthPx),
		TotalAreaM2:     scale.SquareMeters(t.TotalAreaPx2),
		CornerCount:     t.CornerCount,
		RoomPerimeterM:  scale.Meters(t.RoomPerimeterPx),
		RoomFloorAreaM2: scale.SquareMeters(t.RoomAreaPx2),
		DoorAreaM2:      scale.SquareMeters(t.DoorAreaPx2),
		DoorLengthM:     scale.Meters(t.DoorLengthPx),
		WindowAreaM2:    scale.SquareMeters(t.WindowAreaPx2),
		WindowLengthM:   scale.Meters(t.WindowLengthPx),
		LedLengthM:      scale.Meters(t.LedLengthPx),
		Counts:          counts,
	}, true
}
