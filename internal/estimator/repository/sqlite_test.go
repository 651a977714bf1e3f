package repository

import (
	"context"
	"path/filepath"
	"testing"

	"renovation-estimator/internal/estimator/models"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "estimator.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func seedProject(t *testing.T, repo *Repository) (*models.Project, *models.Page) {
	t.Helper()
	ctx := context.Background()
	project, err := repo.CreateProject(ctx, "owner-1", "Квартира")
	require.NoError(t, err)
	page, err := repo.CreatePage(ctx, project.ID, "План")
	require.NoError(t, err)
	return project, page
}

func square(x, y, side float64) []models.Point {
	return []models.Point{{X: x, Y: y}, {X: x + side, Y: y}, {X: x + side, Y: y + side}, {X: x, Y: y + side}}
}

func TestInit_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Init(context.Background()))
}

func TestProjectsAndPages(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	project, page := seedProject(t, repo)

	got, err := repo.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Квартира", got.Name)
	assert.Equal(t, 1, page.Number)

	second, err := repo.CreatePage(ctx, project.ID, "Второй этаж")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Number)

	pages, err := repo.ListPages(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	_, err = repo.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.CreatePage(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrimitives_RoundTripAcrossPages(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	project, page := seedProject(t, repo)
	page2, err := repo.CreatePage(ctx, project.ID, "2")
	require.NoError(t, err)

	saved, err := repo.AddPrimitives(ctx, []models.Primitive{
		{ProjectID: project.ID, PageID: page.ID, Stage: models.StageDemolition,
			Shape: models.LineShape{Points: []models.Point{{X: 0, Y: 0}, {X: 500, Y: 0}}}},
		{ProjectID: project.ID, PageID: page2.ID, Stage: models.StageDemolition,
			Shape: models.RectShape{X: 1, Y: 2, Width: 30, Height: 40}},
		{ProjectID: project.ID, PageID: page.ID, Stage: models.StageElectrical, Tag: models.TagOutlet,
			Shape: models.CircleShape{CX: 5, CY: 5, Radius: 1}, Style: []byte(`{"color":"red"}`)},
	})
	require.NoError(t, err)
	require.Len(t, saved, 3)
	for _, p := range saved {
		assert.NotEmpty(t, p.ID)
	}

	demolition, err := repo.ListPrimitives(ctx, project.ID, models.StageDemolition)
	require.NoError(t, err)
	assert.Len(t, demolition, 2)

	all, err := repo.ListAllPrimitives(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := repo.GetPrimitive(ctx, project.ID, saved[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.RectShape{X: 1, Y: 2, Width: 30, Height: 40}, got.Shape)

	got, err = repo.GetPrimitive(ctx, project.ID, saved[2].ID)
	require.NoError(t, err)
	assert.Equal(t, models.TagOutlet, got.Tag)
	assert.JSONEq(t, `{"color":"red"}`, string(got.Style))
}

func TestAddPrimitives_RejectsUnknownStage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	project, page := seedProject(t, repo)

	_, err := repo.AddPrimitives(ctx, []models.Primitive{
		{ProjectID: project.ID, PageID: page.ID, Stage: models.StageMarkup, Shape: models.RectShape{Width: 1, Height: 1}},
		{ProjectID: project.ID, PageID: page.ID, Stage: "roof", Shape: models.RectShape{Width: 1, Height: 1}},
	})
	require.ErrorIs(t, err, ErrInvalid)

	all, err := repo.ListAllPrimitives(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCalibration(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	project, _ := seedProject(t, repo)

	c, err := repo.GetCalibration(ctx, project.ID)
	require.NoError(t, err)
	assert.Nil(t, c)

	require.NoError(t, repo.SaveCalibration(ctx, project.ID, models.Calibration{
		Scale: models.Scale{KnownLengthMm: 3000, PixelLength: 150}, CeilingHeightMm: 2700,
	}))
	require.NoError(t, repo.SaveCalibration(ctx, project.ID, models.Calibration{
		Scale: models.Scale{KnownLengthMm: 1000, PixelLength: 100}, CeilingHeightMm: 2500,
	}))

	c, err = repo.GetCalibration(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, models.Scale{KnownLengthMm: 1000, PixelLength: 100}, c.Scale)
	assert.Equal(t, 2500.0, c.CeilingHeightMm)
	assert.NotEmpty(t, c.UpdatedAt)
}

func TestRooms_DeleteCascadesOpenings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	project, page := seedProject(t, repo)

	prims, err := repo.AddPrimitives(ctx, []models.Primitive{
		{ProjectID: project.ID, PageID: page.ID, Stage: models.StageMarkup, Tag: models.TagRoom,
			Shape: models.PolygonShape{Points: square(0, 0, 100)}},
		{ProjectID: project.ID, PageID: page.ID, Stage: models.StageMarkup, Tag: models.TagRoom,
			Shape: models.RectShape{X: 100, Y: 0, Width: 100, Height: 100}},
		{ProjectID: project.ID, PageID: page.ID, Stage: models.StageMarkup, Tag: models.TagDoor,
			Shape: models.LineShape{Points: []models.Point{{X: 100, Y: 20}, {X: 100, Y: 65}}}},
	})
	require.NoError(t, err)

	a, err := repo.CreateRoom(ctx, models.Room{ProjectID: project.ID, PrimitiveID: prims[0].ID, Name: "A"})
	require.NoError(t, err)
	b, err := repo.CreateRoom(ctx, models.Room{ProjectID: project.ID, PrimitiveID: prims[1].ID, Name: "B"})
	require.NoError(t, err)

	door, err := repo.CreateOpening(ctx, models.Opening{
		ProjectID: project.ID, PrimitiveID: prims[2].ID, RoomID1: a.ID, RoomID2: b.ID,
		OpeningType: models.OpeningDoor, HeightMm: 2000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 45.0, door.LengthPx, 1e-9)

	rooms, err := repo.ListRooms(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	for _, r := range rooms {
		assert.Len(t, r.Points, 4)
	}

	require.NoError(t, repo.DeleteRoom(ctx, project.ID, b.ID))

	openings, err := repo.ListOpenings(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, openings)

	assert.ErrorIs(t, repo.DeleteRoom(ctx, project.ID, b.ID), ErrNotFound)
}

func TestCreateRoom_RejectsOpenLine(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	project, page := seedProject(t, repo)

	line, err := repo.AddPrimitive(ctx, models.Primitive{
		ProjectID: project.ID, PageID: page.ID, Stage: models.StageMarkup,
		Shape: models.LineShape{Points: []models.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}},
	})
	require.NoError(t, err)

	_, err = repo.CreateRoom(ctx, models.Room{ProjectID: project.ID, PrimitiveID: line.ID})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDeletePrimitive_RemovesDependentRoom(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	project, page := seedProject(t, repo)

	poly, err := repo.AddPrimitive(ctx, models.Primitive{
		ProjectID: project.ID, PageID: page.ID, Stage: models.StageMarkup,
		Shape: models.PolygonShape{Points: square(0, 0, 10)},
	})
	require.NoError(t, err)
	room, err := repo.CreateRoom(ctx, models.Room{ProjectID: project.ID, PrimitiveID: poly.ID})
	require.NoError(t, err)
	_, err = repo.CreateOpening(ctx, models.Opening{
		ProjectID: project.ID, RoomID1: room.ID, OpeningType: models.OpeningWindow, HeightMm: 1500, LengthPx: 5,
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeletePrimitive(ctx, project.ID, poly.ID))

	rooms, err := repo.ListRooms(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, rooms)
	openings, err := repo.ListOpenings(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, openings)

	assert.ErrorIs(t, repo.DeletePrimitive(ctx, project.ID, poly.ID), ErrNotFound)
}

func TestCatalog_ProjectOverridesDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	project, _ := seedProject(t, repo)

	def := func(name string, stage models.Stage) models.CatalogEntry {
		return models.CatalogEntry{
			Kind: models.KindStage, OwnerID: "owner-1", Stage: stage, Name: name,
			TriggerType: models.TagOutlet, ConsumptionPerUnit: 1, SellPrice: 100,
		}
	}

	_, err := repo.SaveCatalogEntry(ctx, def("Розетка", models.StageElectrical))
	require.NoError(t, err)
	_, err = repo.SaveCatalogEntry(ctx, def("Подрозетник", models.StageElectrical))
	require.NoError(t, err)
	_, err = repo.SaveCatalogEntry(ctx, models.CatalogEntry{
		Kind: models.KindBaseboard, OwnerID: "owner-1", Stage: models.StageMaterials, Name: "Плинтус", Unit: "м",
		ConsumptionPerUnit: 1.05, SellPrice: 300,
	})
	require.NoError(t, err)

	entries, err := repo.ListCatalog(ctx, "owner-1", project.ID, models.StageElectrical)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ScopeDefault, entries[0].Scope)

	override := def("Розетка проекта", models.StageElectrical)
	override.ProjectID = project.ID
	saved, err := repo.SaveCatalogEntry(ctx, override)
	require.NoError(t, err)
	assert.Equal(t, models.ScopeProject, saved.Scope)

	entries, err = repo.ListCatalog(ctx, "owner-1", project.ID, models.StageElectrical)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Розетка проекта", entries[0].Name)

	all, err := repo.ListProjectCatalog(ctx, "owner-1", project.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSaveCatalogEntry_Validates(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.SaveCatalogEntry(context.Background(), models.CatalogEntry{
		Kind: models.KindRoomType, Stage: models.StageFinishing, Name: "Обои", Basis: models.BasisOpeningM2,
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	project, page := seedProject(t, repo)

	_, err := repo.CreateRoomType(ctx, models.RoomType{ID: "bath", Name: "Санузел", Category: models.RoomWet})
	require.NoError(t, err)
	poly, err := repo.AddPrimitive(ctx, models.Primitive{
		ProjectID: project.ID, PageID: page.ID, Stage: models.StageMarkup, Tag: models.TagRoom,
		Shape: models.PolygonShape{Points: square(0, 0, 100)},
	})
	require.NoError(t, err)
	_, err = repo.CreateRoom(ctx, models.Room{ProjectID: project.ID, PrimitiveID: poly.ID, RoomTypeID: "bath"})
	require.NoError(t, err)
	require.NoError(t, repo.SaveCalibration(ctx, project.ID, models.Calibration{
		Scale: models.Scale{KnownLengthMm: 3000, PixelLength: 150}, CeilingHeightMm: 2700,
	}))

	snap, err := repo.Snapshot(ctx, project.ID)
	require.NoError(t, err)

	assert.Equal(t, project.ID, snap.Project.ID)
	require.NotNil(t, snap.Scale())
	assert.Len(t, snap.Primitives, 1)
	assert.Len(t, snap.Rooms, 1)
	assert.Len(t, snap.RoomTypes, 1)

	_, err = repo.Snapshot(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
