package assembler

import (
	"sort"

	"renovation-estimator/internal/estimator/models"
	"renovation-estimator/internal/estimator/netting"
)

type RoomMeasurement struct {
	RoomID          string  `json:"roomId"`
	Name            string  `json:"name"`
	RoomType        string  `json:"roomType,omitempty"`
	PerimeterM      float64 `json:"perimeterM"`
	FloorAreaM2     float64 `json:"floorAreaM2"`
	GrossWallAreaM2 float64 `json:"grossWallAreaM2"`
	NetWallAreaM2   float64 `json:"netWallAreaM2"`
}

type OpeningMeasurement struct {
	OpeningID   string             `json:"openingId"`
	OpeningType models.OpeningType `json:"openingType"`
	Rooms       []string           `json:"rooms"`
	LengthM     float64            `json:"lengthM"`
	HeightM     float64            `json:"heightM"`
	AreaM2      float64            `json:"areaM2"`
}

// WallSegment: отрезок стены на этапе демонтажа или монтажа.
type WallSegment struct {
	PrimitiveID string       `json:"primitiveId"`
	Stage       models.Stage `json:"stage"`
	LengthM     float64      `json:"lengthM"`
	AreaM2      float64      `json:"areaM2"`
}

type Electrical struct {
	Counts     map[models.Tag]int `json:"counts"`
	LedLengthM float64            `json:"ledLengthM"`
}

type Baseboard struct {
	LengthM     float64 `json:"lengthM"`
	CornerCount int     `json:"cornerCount"`
}

// Measurements: подробная таблица замеров, параллельная смете.
type Measurements struct {
	ScaleAvailable bool                 `json:"scaleAvailable"`
	CeilingHeightM float64              `json:"ceilingHeightM"`
	Rooms          []RoomMeasurement    `json:"rooms"`
	Openings       []OpeningMeasurement `json:"openings"`
	WallSegments   []WallSegment        `json:"wallSegments"`
	Electrical     Electrical           `json:"electrical"`
	Baseboard      Baseboard            `json:"baseboard"`
}

// Measure строит таблицу замеров. Без масштаба физические поля пустые.
func Measure(in Input) Measurements {
	m := Measurements{
		ScaleAvailable: in.scaleAvailable(),
		CeilingHeightM: in.CeilingHeightM,
		Electrical:     Electrical{Counts: map[models.Tag]int{}},
	}
	if !m.ScaleAvailable {
		return m
	}

	for _, r := range in.Netting.Rooms {
		m.Rooms = append(m.Rooms, RoomMeasurement{
			RoomID:          r.RoomID,
			Name:            r.Name,
			RoomType:        in.RoomTypes[r.RoomTypeID].Name,
			PerimeterM:      r.PerimeterM,
			FloorAreaM2:     r.FloorAreaM2,
			GrossWallAreaM2: r.GrossWallAreaM2,
			NetWallAreaM2:   r.NetWallAreaM2,
		})
	}

	for _, o := range in.Netting.Openings {
		m.Openings = append(m.Openings, openingMeasurement(o))
	}

	m.WallSegments = wallSegments(in)

	if el, ok := in.Stages[models.StageElectrical]; ok {
		for tag, n := range el.Counts {
			m.Electrical.Counts[tag] = n
		}
		m.Electrical.LedLengthM = el.LedLengthM
	}

	if mat, ok := in.Stages[models.StageMaterials]; ok {
		m.Baseboard = Baseboard{LengthM: mat.TotalLengthM, CornerCount: mat.CornerCount}
	}

	return m
}

func openingMeasurement(o netting.PhysicalOpening) OpeningMeasurement {
	rooms := []string{o.RoomID1}
	if o.RoomID2 != "" && o.RoomID2 != o.RoomID1 {
		rooms = append(rooms, o.RoomID2)
	}
	return OpeningMeasurement{
		OpeningID:   o.ID,
		OpeningType: o.OpeningType,
		Rooms:       rooms,
		LengthM:     o.LengthM,
		HeightM:     o.HeightM,
		AreaM2:      o.AreaM2,
	}
}

func wallSegments(in Input) []WallSegment {
	var prims []models.Primitive
	for _, p := range in.Primitives {
		if p.Stage != models.StageDemolition && p.Stage != models.StageInstallation {
			continue
		}
		if p.Type() != models.TypeLine && p.Type() != models.TypeRectangle {
			continue
		}
		prims = append(prims, p)
	}
	sort.Slice(prims, func(i, j int) bool { return prims[i].ID < prims[j].ID })

	out := make([]WallSegment, 0, len(prims))
	for _, p := range prims {
		length := in.Scale.Meters(p.Shape.LengthPx())
		out = append(out, WallSegment{
			PrimitiveID: p.ID,
			Stage:       p.Stage,
			LengthM:     length,
			AreaM2:      length * in.CeilingHeightM,
		})
	}
	return out
}
