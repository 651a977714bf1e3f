package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"renovation-estimator/internal/estimator/models"
	"renovation-estimator/internal/estimator/pipeline"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

//go:embed migrations/*.sql
var migrations embed.FS

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init применяет миграции по порядку имён файлов.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// ============================================================
// Projects & Pages
// ============================================================

func (r *Repository) CreateProject(ctx context.Context, ownerID, name string) (*models.Project, error) {
	p := models.Project{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now(),
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO projects (id, owner_id, name, created_at)
        VALUES (?, ?, ?, ?)
    `, p.ID, p.OwnerID, p.Name, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &p, nil
}

func (r *Repository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, owner_id, name, created_at
        FROM projects
        WHERE id = ?
    `, id)

	var p models.Project
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// CreatePage добавляет страницу со следующим номером.
func (r *Repository) CreatePage(ctx context.Context, projectID, name string) (*models.Page, error) {
	if _, err := r.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	var maxNumber sql.NullInt64
	if err := r.db.QueryRowContext(ctx,
		`SELECT MAX(number) FROM pages WHERE project_id = ?`, projectID,
	).Scan(&maxNumber); err != nil {
		return nil, err
	}

	p := models.Page{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Number:    int(maxNumber.Int64) + 1,
		Name:      name,
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO pages (id, project_id, number, name)
        VALUES (?, ?, ?, ?)
    `, p.ID, p.ProjectID, p.Number, p.Name)
	if err != nil {
		return nil, fmt.Errorf("insert page: %w", err)
	}
	return &p, nil
}

func (r *Repository) GetPage(ctx context.Context, projectID, pageID string) (*models.Page, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, project_id, number, name
        FROM pages
        WHERE id = ? AND project_id = ?
    `, pageID, projectID)

	var p models.Page
	if err := row.Scan(&p.ID, &p.ProjectID, &p.Number, &p.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("page %s: %w", pageID, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListPages(ctx context.Context, projectID string) ([]models.Page, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, project_id, number, name
        FROM pages
        WHERE project_id = ?
        ORDER BY number
    `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Page
	for rows.Next() {
		var p models.Page
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Number, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ============================================================
// Primitives
// ============================================================

// AddPrimitives сохраняет примитивы одной транзакцией. Пустые ID заполняются.
func (r *Repository) AddPrimitives(ctx context.Context, prims []models.Primitive) ([]models.Primitive, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := make([]models.Primitive, 0, len(prims))
	for _, p := range prims {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if !p.Stage.Valid() {
			return nil, fmt.Errorf("%w: primitive %s: unknown stage %q", ErrInvalid, p.ID, p.Stage)
		}
		data, err := models.EncodeShape(p.Shape)
		if err != nil {
			return nil, fmt.Errorf("%w: primitive %s: %v", ErrInvalid, p.ID, err)
		}
		var style any
		if len(p.Style) > 0 {
			style = string(p.Style)
		}

		_, err = tx.ExecContext(ctx, `
            INSERT INTO primitives (id, project_id, page_id, type, stage, tag, data, style)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        `, p.ID, p.ProjectID, p.PageID, string(p.Type()), string(p.Stage), string(p.Tag), string(data), style)
		if err != nil {
			return nil, fmt.Errorf("insert primitive: %w", err)
		}
		out = append(out, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) AddPrimitive(ctx context.Context, p models.Primitive) (*models.Primitive, error) {
	out, err := r.AddPrimitives(ctx, []models.Primitive{p})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (r *Repository) GetPrimitive(ctx context.Context, projectID, id string) (*models.Primitive, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, project_id, page_id, type, stage, tag, data, style
        FROM primitives
        WHERE id = ? AND project_id = ?
    `, id, projectID)

	p, err := scanPrimitive(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("primitive %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// DeletePrimitive удаляет примитив вместе с помещениями и проёмами, которые на него ссылаются.
func (r *Repository) DeletePrimitive(ctx context.Context, projectID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM primitives WHERE id = ? AND project_id = ?`, id, projectID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("primitive %s: %w", id, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `
        DELETE FROM openings
        WHERE project_id = ? AND (
            primitive_id = ?
            OR room_id1 IN (SELECT id FROM rooms WHERE primitive_id = ?)
            OR room_id2 IN (SELECT id FROM rooms WHERE primitive_id = ?)
        )
    `, projectID, id, id, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE project_id = ? AND primitive_id = ?`, projectID, id); err != nil {
		return err
	}

	return tx.Commit()
}

// ListPrimitives возвращает примитивы этапа со всех страниц проекта.
func (r *Repository) ListPrimitives(ctx context.Context, projectID string, stage models.Stage) ([]models.Primitive, error) {
	return r.queryPrimitives(ctx, `
        SELECT id, project_id, page_id, type, stage, tag, data, style
        FROM primitives
        WHERE project_id = ? AND stage = ?
        ORDER BY id
    `, projectID, string(stage))
}

func (r *Repository) ListAllPrimitives(ctx context.Context, projectID string) ([]models.Primitive, error) {
	return r.queryPrimitives(ctx, `
        SELECT id, project_id, page_id, type, stage, tag, data, style
        FROM primitives
        WHERE project_id = ?
        ORDER BY id
    `, projectID)
}

func (r *Repository) queryPrimitives(ctx context.Context, query string, args ...any) ([]models.Primitive, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Primitive
	for rows.Next() {
		p, err := scanPrimitive(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPrimitive(s scanner) (models.Primitive, error) {
	var (
		p          models.Primitive
		typ, stage string
		tag, data  string
		style      sql.NullString
	)
	if err := s.Scan(&p.ID, &p.ProjectID, &p.PageID, &typ, &stage, &tag, &data, &style); err != nil {
		return p, err
	}

	shape, err := models.DecodeShape(models.PrimitiveType(typ), []byte(data))
	if err != nil {
		return p, fmt.Errorf("primitive %s: %w", p.ID, err)
	}
	p.Shape = shape
	p.Stage = models.Stage(stage)
	p.Tag = models.Tag(tag)
	if style.Valid && style.String != "" {
		p.Style = json.RawMessage(style.String)
	}
	return p, nil
}

// ============================================================
// Calibration
// ============================================================

// GetCalibration возвращает nil, если проект ещё не откалиброван.
func (r *Repository) GetCalibration(ctx context.Context, projectID string) (*models.Calibration, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT known_length_mm, pixel_length, ceiling_height_mm, updated_at
        FROM calibrations
        WHERE project_id = ?
    `, projectID)

	var c models.Calibration
	if err := row.Scan(&c.Scale.KnownLengthMm, &c.Scale.PixelLength, &c.CeilingHeightMm, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// SaveCalibration записывает масштаб и высоту потолка одной командой.
func (r *Repository) SaveCalibration(ctx context.Context, projectID string, c models.Calibration) error {
	updatedAt := c.UpdatedAt
	if updatedAt == "" {
		updatedAt = now()
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO calibrations (project_id, known_length_mm, pixel_length, ceiling_height_mm, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(project_id) DO UPDATE SET
            known_length_mm = excluded.known_length_mm,
            pixel_length = excluded.pixel_length,
            ceiling_height_mm = excluded.ceiling_height_mm,
            updated_at = excluded.updated_at
    `, projectID, c.Scale.KnownLengthMm, c.Scale.PixelLength, c.CeilingHeightMm, updatedAt)
	if err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}
	return nil
}

// ============================================================
// Rooms & Openings
// ============================================================

func (r *Repository) CreateRoomType(ctx context.Context, rt models.RoomType) (*models.RoomType, error) {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	if rt.Category == "" {
		rt.Category = models.RoomOther
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO room_types (id, name, category)
        VALUES (?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name, category = excluded.category
    `, rt.ID, rt.Name, string(rt.Category))
	if err != nil {
		return nil, fmt.Errorf("save room type: %w", err)
	}
	return &rt, nil
}

func (r *Repository) ListRoomTypes(ctx context.Context) ([]models.RoomType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, category FROM room_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RoomType
	for rows.Next() {
		var rt models.RoomType
		var category string
		if err := rows.Scan(&rt.ID, &rt.Name, &category); err != nil {
			return nil, err
		}
		rt.Category = models.RoomCategory(category)
		out = append(out, rt)
	}
	return out, rows.Err()
}

// CreateRoom привязывает помещение к замкнутому примитиву проекта.
func (r *Repository) CreateRoom(ctx context.Context, room models.Room) (*models.Room, error) {
	prim, err := r.GetPrimitive(ctx, room.ProjectID, room.PrimitiveID)
	if err != nil {
		return nil, err
	}
	points := models.Outline(prim.Shape)
	if len(points) < 3 {
		return nil, fmt.Errorf("%w: primitive %s does not outline a room", ErrInvalid, prim.ID)
	}

	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	room.Points = points

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO rooms (id, project_id, primitive_id, room_type_id, name)
        VALUES (?, ?, ?, ?, ?)
    `, room.ID, room.ProjectID, room.PrimitiveID, room.RoomTypeID, room.Name)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	return &room, nil
}

// DeleteRoom удаляет помещение и все проёмы, которые на него ссылаются.
func (r *Repository) DeleteRoom(ctx context.Context, projectID, roomID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ? AND project_id = ?`, roomID, projectID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("room %s: %w", roomID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `
        DELETE FROM openings
        WHERE project_id = ? AND (room_id1 = ? OR room_id2 = ?)
    `, projectID, roomID, roomID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListRooms возвращает помещения с контуром из связанного примитива.
func (r *Repository) ListRooms(ctx context.Context, projectID string) ([]models.Room, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT r.id, r.project_id, r.primitive_id, r.room_type_id, r.name, p.type, p.data
        FROM rooms r
        JOIN primitives p ON p.id = r.primitive_id
        WHERE r.project_id = ?
        ORDER BY r.id
    `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Room
	for rows.Next() {
		var room models.Room
		var typ, data string
		if err := rows.Scan(&room.ID, &room.ProjectID, &room.PrimitiveID, &room.RoomTypeID, &room.Name, &typ, &data); err != nil {
			return nil, err
		}
		shape, err := models.DecodeShape(models.PrimitiveType(typ), []byte(data))
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", room.ID, err)
		}
		room.Points = models.Outline(shape)
		out = append(out, room)
	}
	return out, rows.Err()
}

// CreateOpening сохраняет проём. Если длина не задана, она берётся
// из привязанного примитива.
func (r *Repository) CreateOpening(ctx context.Context, o models.Opening) (*models.Opening, error) {
	if !o.OpeningType.Valid() {
		return nil, fmt.Errorf("%w: unknown opening type %q", ErrInvalid, o.OpeningType)
	}
	if o.HeightMm < 0 || o.LengthPx < 0 {
		return nil, fmt.Errorf("%w: opening dimensions must be non-negative", ErrInvalid)
	}
	if o.LengthPx == 0 && o.PrimitiveID != "" {
		prim, err := r.GetPrimitive(ctx, o.ProjectID, o.PrimitiveID)
		if err != nil {
			return nil, err
		}
		o.LengthPx = prim.Shape.LengthPx()
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO openings (id, project_id, primitive_id, room_id1, room_id2, opening_type, height_mm, length_px)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, o.ID, o.ProjectID, o.PrimitiveID, o.RoomID1, o.RoomID2, string(o.OpeningType), o.HeightMm, o.LengthPx)
	if err != nil {
		return nil, fmt.Errorf("insert opening: %w", err)
	}
	return &o, nil
}

func (r *Repository) ListOpenings(ctx context.Context, projectID string) ([]models.Opening, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, project_id, primitive_id, room_id1, room_id2, opening_type, height_mm, length_px
        FROM openings
        WHERE project_id = ?
        ORDER BY id
    `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Opening
	for rows.Next() {
		var o models.Opening
		var typ string
		if err := rows.Scan(&o.ID, &o.ProjectID, &o.PrimitiveID, &o.RoomID1, &o.RoomID2, &typ, &o.HeightMm, &o.LengthPx); err != nil {
			return nil, err
		}
		o.OpeningType = models.OpeningType(typ)
		out = append(out, o)
	}
	return out, rows.Err()
}

// ============================================================
// Catalog
// ============================================================

func (r *Repository) SaveCatalogEntry(ctx context.Context, e models.CatalogEntry) (*models.CatalogEntry, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Scope == "" {
		e.Scope = models.ScopeDefault
		if e.ProjectID != "" {
			e.Scope = models.ScopeProject
		}
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO catalog_entries (
            id, kind, scope, owner_id, project_id, stage, name, unit, is_work,
            consumption_per_unit, purchase_price, sell_price,
            trigger_type, basis, room_type_id, opening_type
        )
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            kind = excluded.kind, scope = excluded.scope, owner_id = excluded.owner_id,
            project_id = excluded.project_id, stage = excluded.stage, name = excluded.name,
            unit = excluded.unit, is_work = excluded.is_work,
            consumption_per_unit = excluded.consumption_per_unit,
            purchase_price = excluded.purchase_price, sell_price = excluded.sell_price,
            trigger_type = excluded.trigger_type, basis = excluded.basis,
            room_type_id = excluded.room_type_id, opening_type = excluded.opening_type
    `,
		e.ID, string(e.Kind), string(e.Scope), e.OwnerID, e.ProjectID, string(e.Stage), e.Name, e.Unit, e.IsWork,
		e.ConsumptionPerUnit, e.PurchasePrice, e.SellPrice,
		string(e.TriggerType), string(e.Basis), e.RoomTypeID, string(e.OpeningType),
	)
	if err != nil {
		return nil, fmt.Errorf("save catalog entry: %w", err)
	}
	return &e, nil
}

// ListCatalog возвращает записи этапа. Если у проекта есть хотя бы одна своя
// запись на этом этапе, умолчания пользователя не используются.
func (r *Repository) ListCatalog(ctx context.Context, ownerID, projectID string, stage models.Stage) ([]models.CatalogEntry, error) {
	project, err := r.queryCatalog(ctx, `
        WHERE scope = ? AND project_id = ? AND stage = ?
    `, string(models.ScopeProject), projectID, string(stage))
	if err != nil {
		return nil, err
	}
	if len(project) > 0 {
		return project, nil
	}
	return r.queryCatalog(ctx, `
        WHERE scope = ? AND owner_id = ? AND stage = ?
    `, string(models.ScopeDefault), ownerID, string(stage))
}

// ListProjectCatalog собирает действующий каталог проекта по всем этапам.
func (r *Repository) ListProjectCatalog(ctx context.Context, ownerID, projectID string) ([]models.CatalogEntry, error) {
	var out []models.CatalogEntry
	for _, st := range models.Stages {
		entries, err := r.ListCatalog(ctx, ownerID, projectID, st)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", st, err)
		}
		out = append(out, entries...)
	}
	return out, nil
}

func (r *Repository) queryCatalog(ctx context.Context, where string, args ...any) ([]models.CatalogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, kind, scope, owner_id, project_id, stage, name, unit, is_work,
               consumption_per_unit, purchase_price, sell_price,
               trigger_type, basis, room_type_id, opening_type
        FROM catalog_entries
    `+where+`
        ORDER BY name, id
    `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CatalogEntry
	for rows.Next() {
		var (
			e                           models.CatalogEntry
			kind, scope, stage          string
			trigger, basis, openingType string
		)
		if err := rows.Scan(
			&e.ID, &kind, &scope, &e.OwnerID, &e.ProjectID, &stage, &e.Name, &e.Unit, &e.IsWork,
			&e.ConsumptionPerUnit, &e.PurchasePrice, &e.SellPrice,
			&trigger, &basis, &e.RoomTypeID, &openingType,
		); err != nil {
			return nil, err
		}
		e.Kind = models.CatalogKind(kind)
		e.Scope = models.CatalogScope(scope)
		e.Stage = models.Stage(stage)
		e.TriggerType = models.Tag(trigger)
		e.Basis = models.Basis(basis)
		e.OpeningType = models.OpeningType(openingType)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ============================================================
// Snapshot
// ============================================================

// Snapshot читает всё, что нужно для расчёта проекта.
func (r *Repository) Snapshot(ctx context.Context, projectID string) (pipeline.Snapshot, error) {
	var snap pipeline.Snapshot

	project, err := r.GetProject(ctx, projectID)
	if err != nil {
		return snap, err
	}
	snap.Project = *project

	if snap.Calibration, err = r.GetCalibration(ctx, projectID); err != nil {
		return snap, fmt.Errorf("calibration: %w", err)
	}
	if snap.Primitives, err = r.ListAllPrimitives(ctx, projectID); err != nil {
		return snap, fmt.Errorf("primitives: %w", err)
	}
	if snap.Rooms, err = r.ListRooms(ctx, projectID); err != nil {
		return snap, fmt.Errorf("rooms: %w", err)
	}
	if snap.Openings, err = r.ListOpenings(ctx, projectID); err != nil {
		return snap, fmt.Errorf("openings: %w", err)
	}
	if snap.RoomTypes, err = r.ListRoomTypes(ctx); err != nil {
		return snap, fmt.Errorf("room types: %w", err)
	}
	if snap.Catalog, err = r.ListProjectCatalog(ctx, project.OwnerID, projectID); err != nil {
		return snap, err
	}
	return snap, nil
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
