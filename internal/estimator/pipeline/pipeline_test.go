package pipeline

import (
	"testing"

	"renovation-estimator/internal/estimator/assembler"
	"renovation-estimator/internal/estimator/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(xy ...float64) []models.Point {
	out := make([]models.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, models.Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func sampleSnapshot() Snapshot {
	kitchen := pts(0, 0, 250, 0, 250, 200, 0, 200)
	return Snapshot{
		Project:     models.Project{ID: "p1", Name: "Квартира"},
		Calibration: &models.Calibration{Scale: models.Scale{KnownLengthMm: 3000, PixelLength: 150}, CeilingHeightMm: 2700},
		Primitives: []models.Primitive{
			{ID: "room", Stage: models.StageMarkup, Tag: models.TagRoom, Shape: models.PolygonShape{Points: kitchen}},
			{ID: "door", Stage: models.StageMarkup, Tag: models.TagDoor, Shape: models.RectShape{X: 10, Y: 0, Width: 45, Height: 5}},
			{ID: "wall", Stage: models.StageDemolition, Shape: models.LineShape{Points: pts(0, 0, 500, 0)}},
			{ID: "board", Stage: models.StageMaterials, Shape: models.LineShape{
				Points: pts(0, 0, 100, 0, 100, 50, 50, 50, 50, 100, 0, 100, 0, 0), Closed: true,
			}},
			{ID: "spot1", Stage: models.StageElectrical, Tag: models.TagSpotlight, Shape: models.CircleShape{CX: 10, CY: 10, Radius: 2}},
			{ID: "spot2", Stage: models.StageElectrical, Tag: models.TagSpotlight, Shape: models.CircleShape{CX: 30, CY: 10, Radius: 2}},
		},
		Rooms: []models.Room{
			{ID: "r1", PrimitiveID: "room", RoomTypeID: "living", Name: "Кухня", Points: kitchen},
		},
		Openings: []models.Opening{
			{ID: "d1", PrimitiveID: "door", RoomID1: "r1", OpeningType: models.OpeningDoor, HeightMm: 2000, LengthPx: 45},
		},
		RoomTypes: []models.RoomType{{ID: "living", Name: "Кухня-гостиная", Category: models.RoomLiving}},
		Catalog: []models.CatalogEntry{
			{ID: "c1", Kind: models.KindStage, Stage: models.StageMarkup, Name: "Откосы", TriggerType: models.TagDoor,
				ConsumptionPerUnit: 1, PurchasePrice: 50, SellPrice: 100, IsWork: true},
			{ID: "c2", Kind: models.KindRoomType, Stage: models.StageFinishing, Name: "Обои", RoomTypeID: "living",
				Basis: models.BasisWallM2, ConsumptionPerUnit: 1, PurchasePrice: 5, SellPrice: 10},
			{ID: "c3", Kind: models.KindBaseboard, Stage: models.StageMaterials, Name: "Уголок", Unit: "угол",
				ConsumptionPerUnit: 1, PurchasePrice: 20, SellPrice: 40},
			{ID: "c4", Kind: models.KindStage, Stage: models.StageElectrical, Name: "Точечный светильник",
				TriggerType: models.TagSpotlight, ConsumptionPerUnit: 1, PurchasePrice: 300, SellPrice: 500},
		},
	}
}

func lineByEntry(t *testing.T, rep Report, id string) (qty float64) {
	t.Helper()
	for _, l := range rep.Lines {
		if l.EntryID == id {
			return l.RequiredQty
		}
	}
	require.Failf(t, "line not found", "entry %s", id)
	return 0
}

func TestRun_Scenario(t *testing.T) {
	rep := Run(sampleSnapshot(), DefaultConfig())

	require.True(t, rep.ScaleAvailable)
	assert.InDelta(t, 0.02, rep.MetersPerPixel, 1e-12)
	assert.InDelta(t, 10.0, rep.Physical[models.StageDemolition].TotalLengthM, 1e-9)

	require.Len(t, rep.Netting.Rooms, 1)
	assert.InDelta(t, 48.6, rep.Netting.Rooms[0].GrossWallAreaM2, 1e-9)
	assert.InDelta(t, 46.8, rep.Netting.Rooms[0].NetWallAreaM2, 1e-9)

	assert.InDelta(t, 0.9*2.7, lineByEntry(t, rep, "c1"), 1e-9)
	assert.InDelta(t, 46.8, lineByEntry(t, rep, "c2"), 1e-9)
	assert.InDelta(t, 6.0, lineByEntry(t, rep, "c3"), 1e-9)
	assert.InDelta(t, 2.0, lineByEntry(t, rep, "c4"), 1e-9)

	var demolition assembler.Row
	for _, r := range rep.Estimate.Rows {
		if r.Code == assembler.RowDemolition {
			demolition = r
		}
	}
	assert.InDelta(t, 27.0, demolition.Quantity, 1e-9)
	assert.Greater(t, rep.Estimate.GrandTotal, 0.0)
	assert.Len(t, rep.Measurements.WallSegments, 1)
}

func TestRun_Idempotent(t *testing.T) {
	snap := sampleSnapshot()
	first := Run(snap, DefaultConfig())
	second := Run(snap, DefaultConfig())

	assert.Equal(t, first, second)
	assert.Equal(t, sampleSnapshot(), snap)
}

func TestRun_PermutationInvariant(t *testing.T) {
	snap := sampleSnapshot()
	shuffled := sampleSnapshot()
	for i, j := 0, len(shuffled.Primitives)-1; i < j; i, j = i+1, j-1 {
		shuffled.Primitives[i], shuffled.Primitives[j] = shuffled.Primitives[j], shuffled.Primitives[i]
	}
	shuffled.Catalog[0], shuffled.Catalog[3] = shuffled.Catalog[3], shuffled.Catalog[0]

	assert.Equal(t, Run(snap, DefaultConfig()), Run(shuffled, DefaultConfig()))
}

func TestRun_WithoutScale(t *testing.T) {
	snap := sampleSnapshot()
	snap.Calibration = nil

	rep := Run(snap, DefaultConfig())

	assert.False(t, rep.ScaleAvailable)
	assert.Nil(t, rep.Physical)
	assert.Empty(t, rep.Netting.Rooms)
	assert.False(t, rep.Estimate.ScaleAvailable)
	assert.Zero(t, rep.Estimate.GrandTotal)
	for _, l := range rep.Lines {
		assert.False(t, l.Resolved, l.EntryID)
	}
	// пиксельные итоги считаются и без масштаба
	assert.Equal(t, 1, rep.Stages[models.StageMarkup].RoomCount)
}
