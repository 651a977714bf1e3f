// Package netting считает площади помещений и вычитает проёмы из стен.
package netting

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"renovation-estimator/internal/estimator/geometry"
	"renovation-estimator/internal/estimator/models"
)

// DefaultLengthRoundingPx: шаг округления длины при поиске дублей проёма.
const DefaultLengthRoundingPx = 0.1

// Options настраивает эвристику склейки проёмов, нарисованных дважды.
type Options struct {
	LengthRoundingPx float64
}

func DefaultOptions() Options {
	return Options{LengthRoundingPx: DefaultLengthRoundingPx}
}

// RoomQuantities: физические величины одного помещения.
type RoomQuantities struct {
	RoomID          string   `json:"roomId"`
	Name            string   `json:"name"`
	RoomTypeID      string   `json:"roomTypeId"`
	PerimeterM      float64  `json:"perimeterM"`
	FloorAreaM2     float64  `json:"floorAreaM2"`
	GrossWallAreaM2 float64  `json:"grossWallAreaM2"`
	OpeningsAreaM2  float64  `json:"openingsAreaM2"`
	NetWallAreaM2   float64  `json:"netWallAreaM2"`
	OpeningIDs      []string `json:"openingIds"`
}

// PhysicalOpening: проём после склейки дублей; материалы считаются по нему один раз.
type PhysicalOpening struct {
	ID          string             `json:"id"`
	SourceIDs   []string           `json:"sourceIds"`
	OpeningType models.OpeningType `json:"openingType"`
	RoomID1     string             `json:"roomId1"`
	RoomID2     string             `json:"roomId2,omitempty"`
	LengthPx    float64            `json:"lengthPx"`
	LengthM     float64            `json:"lengthM"`
	HeightM     float64            `json:"heightM"`
	AreaM2      float64            `json:"areaM2"`
}

func (o PhysicalOpening) rooms() []string {
	if o.RoomID2 == "" || o.RoomID2 == o.RoomID1 {
		return []string{o.RoomID1}
	}
	return []string{o.RoomID1, o.RoomID2}
}

type Result struct {
	Rooms         []RoomQuantities  `json:"rooms"`
	Openings      []PhysicalOpening `json:"openings"`
	ExcludedRooms []string          `json:"excludedRooms,omitempty"`
	Orphaned      []string          `json:"orphanedOpenings,omitempty"`
}

// Compute считает площади помещений и вычитает из стен каждый физический проём
// по одному разу для каждой примыкающей комнаты. Чистая площадь стен не бывает
// отрицательной.
func Compute(rooms []models.Room, openings []models.Opening, metersPerPixel, ceilingHeightM float64, opts Options) Result {
	var res Result

	known := make(map[string]bool, len(rooms))
	index := make(map[string]int, len(rooms))

	sortedRooms := append([]models.Room(nil), rooms...)
	sort.SliceStable(sortedRooms, func(i, j int) bool { return sortedRooms[i].ID < sortedRooms[j].ID })

	for _, room := range sortedRooms {
		if known[room.ID] {
			continue
		}
		known[room.ID] = true

		areaPx, perimeterPx, ok := geometry.PolygonAreaAndPerimeter(room.Points)
		if !ok {
			res.ExcludedRooms = append(res.ExcludedRooms, room.ID)
			continue
		}

		perimeterM := perimeterPx * metersPerPixel
		gross := perimeterM * ceilingHeightM
		index[room.ID] = len(res.Rooms)
		res.Rooms = append(res.Rooms, RoomQuantities{
			RoomID:          room.ID,
			Name:            room.Name,
			RoomTypeID:      room.RoomTypeID,
			PerimeterM:      perimeterM,
			FloorAreaM2:     areaPx * metersPerPixel * metersPerPixel,
			GrossWallAreaM2: gross,
			NetWallAreaM2:   gross,
			OpeningIDs:      []string{},
		})
	}

	res.Openings, res.Orphaned = dedupe(openings, known, metersPerPixel, opts)

	for _, o := range res.Openings {
		for _, roomID := range o.rooms() {
			i, ok := index[roomID]
			if !ok {
				continue
			}
			r := &res.Rooms[i]
			r.OpeningsAreaM2 += o.AreaM2
			r.OpeningIDs = append(r.OpeningIDs, o.ID)
		}
	}

	for i := range res.Rooms {
		r := &res.Rooms[i]
		r.NetWallAreaM2 = math.Max(0, r.GrossWallAreaM2-r.OpeningsAreaM2)
	}

	return res
}

// dedupe склеивает проёмы с одинаковой парой комнат, типом, высотой и округлённой
// длиной. Проёмы, ссылающиеся на несуществующие комнаты, отбрасываются.
func dedupe(openings []models.Opening, known map[string]bool, metersPerPixel float64, opts Options) ([]PhysicalOpening, []string) {
	sortedOpenings := append([]models.Opening(nil), openings...)
	sort.SliceStable(sortedOpenings, func(i, j int) bool { return sortedOpenings[i].ID < sortedOpenings[j].ID })

	var (
		out      []PhysicalOpening
		orphaned []string
		byKey    = make(map[string]int)
	)

	for _, o := range sortedOpenings {
		if o.RoomID1 == "" || !known[o.RoomID1] || (o.RoomID2 != "" && !known[o.RoomID2]) {
			orphaned = append(orphaned, o.ID)
			continue
		}

		key := dedupeKey(o, opts.LengthRoundingPx)
		if i, ok := byKey[key]; ok {
			out[i].SourceIDs = append(out[i].SourceIDs, o.ID)
			continue
		}

		o.LengthPx = math.Max(0, o.LengthPx)
		o.HeightMm = math.Max(0, o.HeightMm)

		byKey[key] = len(out)
		out = append(out, PhysicalOpening{
			ID:          o.ID,
			SourceIDs:   []string{o.ID},
			OpeningType: o.OpeningType,
			RoomID1:     o.RoomID1,
			RoomID2:     o.RoomID2,
			LengthPx:    o.LengthPx,
			LengthM:     o.LengthPx * metersPerPixel,
			HeightM:     o.HeightMm / 1000,
			AreaM2:      o.AreaM2(metersPerPixel),
		})
	}

	return out, orphaned
}

func dedupeKey(o models.Opening, step float64) string {
	a, b := o.RoomID1, o.RoomID2
	if b != "" && b < a {
		a, b = b, a
	}

	length := strconv.FormatFloat(o.LengthPx, 'g', -1, 64)
	if step > 0 {
		length = strconv.FormatInt(int64(math.Round(o.LengthPx/step)), 10)
	}

	return fmt.Sprintf("%s|%s|%s|%s|%s", a, b, o.OpeningType,
		strconv.FormatFloat(o.HeightMm, 'g', -1, 64), length)
}

// ============================================================
// Totals
// ============================================================

// Суммарные площади по набору помещений.
type Totals struct {
	FloorAreaM2   float64 `json:"floorAreaM2"`
	GrossWallM2   float64 `json:"grossWallAreaM2"`
	NetWallAreaM2 float64 `json:"netWallAreaM2"`
	PerimeterM    float64 `json:"perimeterM"`
}

// Sum суммирует помещения, для которых keep возвращает true (nil: все).
func (r Result) Sum(keep func(RoomQuantities) bool) Totals {
	var t Totals
	for _, room := range r.Rooms {
		if keep != nil && !keep(room) {
			continue
		}
		t.FloorAreaM2 += room.FloorAreaM2
		t.GrossWallM2 += room.GrossWallAreaM2
		t.NetWallAreaM2 += room.NetWallAreaM2
		t.PerimeterM += room.PerimeterM
	}
	return t
}
