package netting

import (
	"testing"

	"renovation-estimator/internal/estimator/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mpp = 0.02 // 3000 мм / 150 px

func rect(id string, x, y, w, h float64) models.Room {
	return models.Room{
		ID:         id,
		Name:       id,
		RoomTypeID: "rt-" + id,
		Points: []models.Point{
			{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h},
		},
	}
}

func TestCompute_DoorScenario(t *testing.T) {
	rooms := []models.Room{rect("kitchen", 0, 0, 250, 200)}
	openings := []models.Opening{{
		ID: "d1", RoomID1: "kitchen", OpeningType: models.OpeningDoor, HeightMm: 2000, LengthPx: 45,
	}}

	res := Compute(rooms, openings, mpp, 2.7, DefaultOptions())

	require.Len(t, res.Rooms, 1)
	r := res.Rooms[0]
	assert.InDelta(t, 18.0, r.PerimeterM, 1e-9)
	assert.InDelta(t, 20.0, r.FloorAreaM2, 1e-9)
	assert.InDelta(t, 48.6, r.GrossWallAreaM2, 1e-9)
	assert.InDelta(t, 1.8, r.OpeningsAreaM2, 1e-9)
	assert.InDelta(t, 46.8, r.NetWallAreaM2, 1e-9)
	assert.Equal(t, []string{"d1"}, r.OpeningIDs)
}

func TestCompute_NetWallAreaClampedAtZero(t *testing.T) {
	rooms := []models.Room{rect("closet", 0, 0, 10, 10)}
	openings := []models.Opening{{
		ID: "o1", RoomID1: "closet", OpeningType: models.OpeningGeneric, HeightMm: 50000, LengthPx: 500,
	}}

	res := Compute(rooms, openings, mpp, 2.7, DefaultOptions())
	require.Len(t, res.Rooms, 1)
	assert.Zero(t, res.Rooms[0].NetWallAreaM2)
	assert.Greater(t, res.Rooms[0].OpeningsAreaM2, res.Rooms[0].GrossWallAreaM2)
}

func TestCompute_PhysicalOpeningArea(t *testing.T) {
	rooms := []models.Room{rect("kitchen", 0, 0, 250, 200)}
	openings := []models.Opening{
		{ID: "d1", RoomID1: "kitchen", OpeningType: models.OpeningDoor, HeightMm: 2000, LengthPx: 45},
		{ID: "w1", RoomID1: "kitchen", OpeningType: models.OpeningWindow, HeightMm: -300, LengthPx: 60},
	}

	res := Compute(rooms, openings, mpp, 2.7, DefaultOptions())

	require.Len(t, res.Openings, 2)
	byID := map[string]PhysicalOpening{}
	for _, o := range res.Openings {
		byID[o.ID] = o
	}
	assert.InDelta(t, 1.8, byID["d1"].AreaM2, 1e-9)
	assert.InDelta(t, 2.0, byID["d1"].HeightM, 1e-9)
	assert.Zero(t, byID["w1"].AreaM2)
	assert.Zero(t, byID["w1"].HeightM)
	assert.InDelta(t, 1.8, res.Rooms[0].OpeningsAreaM2, 1e-9)
}

func TestCompute_SharedOpeningTracedTwice(t *testing.T) {
	rooms := []models.Room{rect("a", 0, 0, 250, 200), rect("b", 250, 0, 250, 200)}
	openings := []models.Opening{
		{ID: "o1", RoomID1: "a", RoomID2: "b", OpeningType: models.OpeningDoor, HeightMm: 2000, LengthPx: 45.02},
		{ID: "o2", RoomID1: "b", RoomID2: "a", OpeningType: models.OpeningDoor, HeightMm: 2000, LengthPx: 44.98},
	}

	res := Compute(rooms, openings, mpp, 2.7, DefaultOptions())

	require.Len(t, res.Openings, 1, "same physical opening is counted once")
	assert.Equal(t, []string{"o1", "o2"}, res.Openings[0].SourceIDs)
	for _, r := range res.Rooms {
		assert.InDelta(t, res.Openings[0].AreaM2, r.OpeningsAreaM2, 1e-12, r.RoomID)
		assert.InDelta(t, 48.6-res.Openings[0].AreaM2, r.NetWallAreaM2, 1e-9, r.RoomID)
	}
}

func TestCompute_DifferentHeightsAreDistinct(t *testing.T) {
	rooms := []models.Room{rect("a", 0, 0, 250, 200), rect("b", 250, 0, 250, 200)}
	openings := []models.Opening{
		{ID: "o1", RoomID1: "a", RoomID2: "b", OpeningType: models.OpeningDoor, HeightMm: 2000, LengthPx: 45},
		{ID: "o2", RoomID1: "a", RoomID2: "b", OpeningType: models.OpeningDoor, HeightMm: 2100, LengthPx: 45},
		{ID: "o3", RoomID1: "a", RoomID2: "b", OpeningType: models.OpeningWindow, HeightMm: 2000, LengthPx: 45},
	}

	res := Compute(rooms, openings, mpp, 2.7, DefaultOptions())
	assert.Len(t, res.Openings, 3)
}

func TestCompute_RoundingDisabled(t *testing.T) {
	rooms := []models.Room{rect("a", 0, 0, 250, 200), rect("b", 250, 0, 250, 200)}
	openings := []models.Opening{
		{ID: "o1", RoomID1: "a", RoomID2: "b", OpeningType: models.OpeningDoor, HeightMm: 2000, LengthPx: 45.02},
		{ID: "o2", RoomID1: "a", RoomID2: "b", OpeningType: models.OpeningDoor, HeightMm: 2000, LengthPx: 44.98},
	}

	res := Compute(rooms, openings, mpp, 2.7, Options{})
	assert.Len(t, res.Openings, 2)
}

func TestCompute_OrphanedOpeningExcluded(t *testing.T) {
	rooms := []models.Room{rect("a", 0, 0, 250, 200)}
	openings := []models.Opening{
		{ID: "o1", RoomID1: "a", RoomID2: "deleted", OpeningType: models.OpeningDoor, HeightMm: 2000, LengthPx: 45},
		{ID: "o2", RoomID1: "ghost", OpeningType: models.OpeningWindow, HeightMm: 1500, LengthPx: 60},
		{ID: "o3", OpeningType: models.OpeningWindow, HeightMm: 1500, LengthPx: 60},
	}

	res := Compute(rooms, openings, mpp, 2.7, DefaultOptions())
	assert.Empty(t, res.Openings)
	assert.Equal(t, []string{"o1", "o2", "o3"}, res.Orphaned)
	assert.InDelta(t, 48.6, res.Rooms[0].NetWallAreaM2, 1e-9)
}

func TestCompute_DegenerateRoomExcluded(t *testing.T) {
	rooms := []models.Room{
		rect("a", 0, 0, 250, 200),
		{ID: "line", Points: []models.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}},
	}
	res := Compute(rooms, nil, mpp, 2.7, DefaultOptions())

	require.Len(t, res.Rooms, 1)
	assert.Equal(t, []string{"line"}, res.ExcludedRooms)
}

func TestResult_Sum(t *testing.T) {
	rooms := []models.Room{rect("a", 0, 0, 250, 200), rect("b", 250, 0, 100, 100)}
	res := Compute(rooms, nil, mpp, 2.7, DefaultOptions())

	all := res.Sum(nil)
	assert.InDelta(t, 20.0+4.0, all.FloorAreaM2, 1e-9)

	onlyA := res.Sum(func(r RoomQuantities) bool { return r.RoomID == "a" })
	assert.InDelta(t, 48.6, onlyA.NetWallAreaM2, 1e-9)
}

func TestCompute_Idempotent(t *testing.T) {
	rooms := []models.Room{rect("b", 250, 0, 250, 200), rect("a", 0, 0, 250, 200)}
	openings := []models.Opening{
		{ID: "o2", RoomID1: "b", OpeningType: models.OpeningWindow, HeightMm: 1400, LengthPx: 70},
		{ID: "o1", RoomID1: "a", RoomID2: "b", OpeningType: models.OpeningDoor, HeightMm: 2000, LengthPx: 45},
	}

	first := Compute(rooms, openings, mpp, 2.7, DefaultOptions())
	second := Compute(rooms, openings, mpp, 2.7, DefaultOptions())
	assert.Equal(t, first, second)
	assert.Equal(t, "a", first.Rooms[0].RoomID)
}
