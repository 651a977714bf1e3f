package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"renovation-estimator/internal/estimator/calibration"
	"renovation-estimator/internal/estimator/models"
	"renovation-estimator/internal/estimator/parser"
	"renovation-estimator/internal/estimator/storage"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Projects & Pages
// ============================================================

type createProjectRequest struct {
	OwnerID string `json:"ownerId"`
	Name    string `json:"name"`
}

func (h *EstimatorHandler) CreateProject(c fiber.Ctx) error {
	var req createProjectRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}
	if req.Name == "" {
		return badRequest(c, "name required")
	}

	project, err := h.store.CreateProject(c.Context(), req.OwnerID, req.Name)
	if err != nil {
		return fail(c, err)
	}
	log.Printf("[ESTIMATOR] project created: %s", project.ID)
	return c.Status(http.StatusCreated).JSON(project)
}

type projectResponse struct {
	*models.Project
	Pages       []models.Page       `json:"pages"`
	Calibration *models.Calibration `json:"calibration"`
}

func (h *EstimatorHandler) GetProject(c fiber.Ctx) error {
	id := c.Params("id")
	project, err := h.store.GetProject(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	pages, err := h.store.ListPages(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	cal, err := h.store.GetCalibration(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(projectResponse{Project: project, Pages: pages, Calibration: cal})
}

type createPageRequest struct {
	Name string `json:"name"`
}

func (h *EstimatorHandler) CreatePage(c fiber.Ctx) error {
	var req createPageRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return badRequest(c, "invalid json")
		}
	}
	page, err := h.store.CreatePage(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(page)
}

// ============================================================
// Primitives
// ============================================================

// AddPrimitive сохраняет нарисованную фигуру. Рисовать на этапах, кроме
// калибровки, можно только после установки масштаба.
func (h *EstimatorHandler) AddPrimitive(c fiber.Ctx) error {
	projectID, pageID := c.Params("id"), c.Params("page")

	var p models.Primitive
	if err := json.Unmarshal(c.Body(), &p); err != nil {
		return badRequest(c, err.Error())
	}
	if !p.Stage.Valid() {
		return badRequest(c, "unknown stage")
	}

	if _, err := h.store.GetPage(c.Context(), projectID, pageID); err != nil {
		return fail(c, err)
	}
	cal, err := h.store.GetCalibration(c.Context(), projectID)
	if err != nil {
		return fail(c, err)
	}
	if !calibration.StageEnabled(p.Stage, cal) {
		return fail(c, models.ErrMissingScale)
	}

	p.ProjectID, p.PageID = projectID, pageID
	saved, err := h.store.AddPrimitive(c.Context(), p)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(saved)
}

func (h *EstimatorHandler) ListPrimitives(c fiber.Ctx) error {
	stage := models.Stage(c.Query("stage"))
	if !stage.Valid() {
		return badRequest(c, "stage query parameter required")
	}
	prims, err := h.store.ListPrimitives(c.Context(), c.Params("id"), stage)
	if err != nil {
		return fail(c, err)
	}
	if prims == nil {
		prims = []models.Primitive{}
	}
	return c.JSON(prims)
}

func (h *EstimatorHandler) DeletePrimitive(c fiber.Ctx) error {
	if err := h.store.DeletePrimitive(c.Context(), c.Params("id"), c.Params("primitiveId")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ImportSVG разбирает размеченный SVG из multipart-поля file и сохраняет примитивы.
func (h *EstimatorHandler) ImportSVG(c fiber.Ctx) error {
	projectID, pageID := c.Params("id"), c.Params("page")
	log.Printf("[IMPORT] Received request for project %s page %s", projectID, pageID)

	if _, err := h.store.GetPage(c.Context(), projectID, pageID); err != nil {
		return fail(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		log.Printf("[IMPORT] FormFile error: %v", err)
		return badRequest(c, "file required in multipart/form-data")
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	res, err := parser.Import(bytes.NewReader(data), parser.Options{
		ProjectID: projectID,
		PageID:    pageID,
		WallStage: models.Stage(c.Query("wallStage")),
	})
	if err != nil {
		log.Printf("[IMPORT] parse error: %v", err)
		return badRequest(c, err.Error())
	}

	saved, err := h.store.AddPrimitives(c.Context(), res.Primitives)
	if err != nil {
		return fail(c, err)
	}
	res.Primitives = saved

	if h.plans != nil {
		if _, err := h.plans.SavePlan(projectID, pageID, file.Filename, data); err != nil {
			log.Printf("[IMPORT] save plan error: %v", err)
		}
	}
	return c.Status(http.StatusCreated).JSON(res)
}

// GetPlan отдаёт исходный файл плана страницы.
func (h *EstimatorHandler) GetPlan(c fiber.Ctx) error {
	projectID, pageID := c.Params("id"), c.Params("page")
	if h.plans == nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "plan storage disabled"})
	}
	if _, err := h.store.GetPage(c.Context(), projectID, pageID); err != nil {
		return fail(c, err)
	}

	path, err := h.plans.FindPlan(projectID, pageID)
	if errors.Is(err, storage.ErrPlanNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.SendFile(path)
}

// ============================================================
// Rooms, Openings & Catalog
// ============================================================

func (h *EstimatorHandler) CreateRoom(c fiber.Ctx) error {
	var room models.Room
	if err := json.Unmarshal(c.Body(), &room); err != nil {
		return badRequest(c, "invalid json")
	}
	if room.PrimitiveID == "" {
		return badRequest(c, "primitiveId required")
	}
	room.ProjectID = c.Params("id")

	saved, err := h.store.CreateRoom(c.Context(), room)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(saved)
}

func (h *EstimatorHandler) DeleteRoom(c fiber.Ctx) error {
	if err := h.store.DeleteRoom(c.Context(), c.Params("id"), c.Params("roomId")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *EstimatorHandler) CreateOpening(c fiber.Ctx) error {
	var o models.Opening
	if err := json.Unmarshal(c.Body(), &o); err != nil {
		return badRequest(c, "invalid json")
	}
	if o.RoomID1 == "" {
		return badRequest(c, "roomId1 required")
	}
	o.ProjectID = c.Params("id")

	saved, err := h.store.CreateOpening(c.Context(), o)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(saved)
}

func (h *EstimatorHandler) CreateRoomType(c fiber.Ctx) error {
	var rt models.RoomType
	if err := json.Unmarshal(c.Body(), &rt); err != nil {
		return badRequest(c, "invalid json")
	}
	if rt.Name == "" {
		return badRequest(c, "name required")
	}
	saved, err := h.store.CreateRoomType(c.Context(), rt)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(saved)
}

func (h *EstimatorHandler) ListRoomTypes(c fiber.Ctx) error {
	types, err := h.store.ListRoomTypes(c.Context())
	if err != nil {
		return fail(c, err)
	}
	if types == nil {
		types = []models.RoomType{}
	}
	return c.JSON(types)
}

func (h *EstimatorHandler) SaveDefaultCatalogEntry(c fiber.Ctx) error {
	var e models.CatalogEntry
	if err := json.Unmarshal(c.Body(), &e); err != nil {
		return badRequest(c, "invalid json")
	}
	e.Scope, e.ProjectID = models.ScopeDefault, ""
	return h.saveCatalogEntry(c, e)
}

func (h *EstimatorHandler) SaveProjectCatalogEntry(c fiber.Ctx) error {
	var e models.CatalogEntry
	if err := json.Unmarshal(c.Body(), &e); err != nil {
		return badRequest(c, "invalid json")
	}
	e.Scope, e.ProjectID = models.ScopeProject, c.Params("id")
	return h.saveCatalogEntry(c, e)
}

func (h *EstimatorHandler) saveCatalogEntry(c fiber.Ctx, e models.CatalogEntry) error {
	saved, err := h.store.SaveCatalogEntry(c.Context(), e)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(saved)
}

// ListCatalog отдаёт действующий каталог этапа с учётом переопределений проекта.
func (h *EstimatorHandler) ListCatalog(c fiber.Ctx) error {
	stage := models.Stage(c.Params("stage"))
	if !stage.Valid() {
		return badRequest(c, "unknown stage")
	}
	project, err := h.store.GetProject(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	entries, err := h.store.ListCatalog(c.Context(), project.OwnerID, project.ID, stage)
	if err != nil {
		return fail(c, err)
	}
	if entries == nil {
		entries = []models.CatalogEntry{}
	}
	return c.JSON(entries)
}
