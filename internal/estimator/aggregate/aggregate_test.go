package aggregate

import (
	"fmt"
	"math/rand"
	"testing"

	"renovation-estimator/internal/estimator/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(x, y float64) models.Point { return models.Point{X: x, Y: y} }

func mixedPrimitives() []models.Primitive {
	var out []models.Primitive
	add := func(stage models.Stage, tag models.Tag, shape models.Shape) {
		out = append(out, models.Primitive{
			ID:    fmt.Sprintf("p%02d", len(out)),
			Stage: stage,
			Tag:   tag,
			Shape: shape,
		})
	}

	add(models.StageDemolition, models.TagNone, models.LineShape{Points: []models.Point{pt(0, 0), pt(500, 0)}})
	add(models.StageDemolition, models.TagNone, models.RectShape{X: 0, Y: 0, Width: 10, Height: -200})
	add(models.StageDemolition, models.TagNone, models.LineShape{Points: []models.Point{pt(0, 0), pt(33.3, 0), pt(33.3, 71.7)}})
	add(models.StageInstallation, models.TagNone, models.LineShape{Points: []models.Point{pt(0, 0), pt(100, 0)}})
	add(models.StageMarkup, models.TagRoom, models.PolygonShape{Points: []models.Point{pt(0, 0), pt(250, 0), pt(250, 200), pt(0, 200)}})
	add(models.StageMarkup, models.TagNone, models.PolygonShape{Points: []models.Point{pt(0, 0), pt(40, 0), pt(0, 30)}})
	add(models.StageMarkup, models.TagRoom, models.PolygonShape{Points: []models.Point{pt(0, 0), pt(40, 0)}})
	add(models.StageMarkup, models.TagDoor, models.RectShape{Width: 45, Height: 5})
	add(models.StageMarkup, models.TagWindow, models.LineShape{Points: []models.Point{pt(0, 0), pt(60, 0)}})
	add(models.StageElectrical, models.TagSpotlight, models.CircleShape{Radius: 3})
	add(models.StageElectrical, models.TagSpotlight, models.CircleShape{Radius: 3})
	add(models.StageElectrical, models.TagOutlet, models.CircleShape{Radius: 2})
	add(models.StageElectrical, models.TagSwitch, models.TextShape{Text: "S"})
	add(models.StageElectrical, models.TagLED, models.LineShape{Points: []models.Point{pt(0, 0), pt(0, 120), pt(80, 120)}})
	add(models.StageMaterials, models.TagNone, models.LineShape{
		Points: []models.Point{pt(0, 0), pt(100, 0), pt(100, 100), pt(50, 150), pt(0, 100), pt(0, 50), pt(0, 0)},
		Closed: true,
	})
	return out
}

func TestStage_OnlyMatchingStage(t *testing.T) {
	totals := Stage(models.StageInstallation, mixedPrimitives())
	assert.Equal(t, 1, totals.PrimitiveCount)
	assert.InDelta(t, 100.0, totals.TotalLengthPx, 1e-9)
}

func TestStage_LinesAndRectangles(t *testing.T) {
	totals := Stage(models.StageDemolition, mixedPrimitives())

	assert.Equal(t, 2, totals.LineCount)
	assert.Equal(t, 1, totals.RectangleCount)
	assert.InDelta(t, 500+200+33.3+71.7, totals.TotalLengthPx, 1e-9)
	assert.InDelta(t, 2000.0, totals.TotalAreaPx2, 1e-9)
	assert.Equal(t, 1, totals.CornerCount, "open L-shaped polyline has one corner")
}

func TestStage_Markup(t *testing.T) {
	totals := Stage(models.StageMarkup, mixedPrimitives())

	assert.Equal(t, 2, totals.RoomCount, "degenerate polygon is excluded")
	assert.InDelta(t, 900.0+120.0, totals.RoomPerimeterPx, 1e-9)
	assert.InDelta(t, 50000.0+600.0, totals.RoomAreaPx2, 1e-9)
	assert.Equal(t, 1, totals.DoorCount)
	assert.InDelta(t, 225.0, totals.DoorAreaPx2, 1e-9)
	assert.InDelta(t, 45.0, totals.DoorLengthPx, 1e-9)
	assert.Equal(t, 1, totals.WindowCount)
	assert.InDelta(t, 60.0, totals.WindowLengthPx, 1e-9)
	assert.Zero(t, totals.WindowAreaPx2)
}

func TestStage_Electrical(t *testing.T) {
	totals := Stage(models.StageElectrical, mixedPrimitives())

	assert.Equal(t, 2, totals.Counts[models.TagSpotlight])
	assert.Equal(t, 1, totals.Counts[models.TagOutlet])
	assert.Equal(t, 1, totals.Counts[models.TagSwitch])
	assert.Equal(t, 0, totals.Counts[models.TagBra])
	assert.InDelta(t, 200.0, totals.LedLengthPx, 1e-9)
}

func TestStage_ClosedBaseboardCorners(t *testing.T) {
	totals := Stage(models.StageMaterials, mixedPrimitives())
	assert.Equal(t, 6, totals.CornerCount)
}

func TestStage_PermutationInvariant(t *testing.T) {
	prims := mixedPrimitives()
	want := Project(prims)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		shuffled := append([]models.Primitive(nil), prims...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Project(shuffled), "shuffle %d", i)
	}
}

func TestStage_PermutationInvariantWithoutIDs(t *testing.T) {
	line := func(length float64) models.Primitive {
		return models.Primitive{Stage: models.StageDemolition, Shape: models.LineShape{Points: []models.Point{pt(0, 0), pt(length, 0)}}}
	}
	forward := []models.Primitive{line(0.1), line(0.2), line(0.3)}
	backward := []models.Primitive{line(0.3), line(0.2), line(0.1)}

	a := Stage(models.StageDemolition, forward)
	b := Stage(models.StageDemolition, backward)
	assert.Equal(t, a.TotalLengthPx, b.TotalLengthPx)
}

func TestStage_FlaggedClosedBaseboardIncludesClosingEdge(t *testing.T) {
	square := []models.Point{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10)}
	flagged := []models.Primitive{{ID: "a", Stage: models.StageMaterials, Shape: models.LineShape{Points: square, Closed: true}}}
	repeated := []models.Primitive{{ID: "a", Stage: models.StageMaterials, Shape: models.LineShape{Points: append(append([]models.Point(nil), square...), pt(0, 0)), Closed: true}}}

	f := Stage(models.StageMaterials, flagged)
	r := Stage(models.StageMaterials, repeated)

	assert.Equal(t, 4, f.CornerCount)
	assert.Equal(t, 4, r.CornerCount)
	assert.InDelta(t, 40.0, f.TotalLengthPx, 1e-9)
	assert.InDelta(t, 40.0, r.TotalLengthPx, 1e-9)
}

func TestStage_DegenerateGeometryContributesZero(t *testing.T) {
	prims := []models.Primitive{
		{ID: "a", Stage: models.StageDemolition, Shape: models.LineShape{}},
		{ID: "b", Stage: models.StageDemolition, Shape: models.RectShape{}},
		{ID: "c", Stage: models.StageDemolition},
	}
	totals := Stage(models.StageDemolition, prims)
	assert.Zero(t, totals.TotalLengthPx)
	assert.Zero(t, totals.TotalAreaPx2)
	assert.Equal(t, 2, totals.PrimitiveCount)
}

func TestPhysical_WallLineScenario(t *testing.T) {
	scale := &models.Scale{KnownLengthMm: 3000, PixelLength: 150}
	prims := []models.Primitive{{
		ID:    "wall",
		Stage: models.StageDemolition,
		Shape: models.LineShape{Points: []models.Point{pt(0, 0), pt(300, 400)}},
	}}

	phys, ok := Stage(models.StageDemolition, prims).Physical(scale)
	require.True(t, ok)
	assert.InDelta(t, 10.0, phys.TotalLengthM, 1e-9)
}

func TestPhysical_RectangleRoundTrip(t *testing.T) {
	for _, tc := range []struct{ w, h, k float64 }{
		{120, 80, 20},
		{33.5, 900, 7.25},
		{1, 1, 0.5},
	} {
		scale := &models.Scale{KnownLengthMm: tc.k * 100, PixelLength: 100}
		prims := []models.Primitive{{ID: "r", Stage: models.StageInstallation, Shape: models.RectShape{Width: tc.w, Height: tc.h}}}

		phys, ok := Stage(models.StageInstallation, prims).Physical(scale)
		require.True(t, ok)
		want := (tc.w * tc.k / 1000) * (tc.h * tc.k / 1000)
		assert.InDelta(t, want, phys.TotalAreaM2, 1e-12)
	}
}

func TestPhysical_Unavailable(t *testing.T) {
	totals := Stage(models.StageDemolition, mixedPrimitives())

	_, ok := totals.Physical(nil)
	assert.False(t, ok)
	_, ok = totals.Physical(&models.Scale{KnownLengthMm: 3000})
	assert.False(t, ok)
}
