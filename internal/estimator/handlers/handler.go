package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"renovation-estimator/internal/estimator/calibration"
	"renovation-estimator/internal/estimator/export"
	"renovation-estimator/internal/estimator/models"
	"renovation-estimator/internal/estimator/pipeline"
	"renovation-estimator/internal/estimator/repository"
	"renovation-estimator/internal/estimator/storage"

	"github.com/gofiber/fiber/v3"
)

// Store перечисляет операции хранилища, нужные обработчикам.
type Store interface {
	calibration.Store

	CreateProject(ctx context.Context, ownerID, name string) (*models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	CreatePage(ctx context.Context, projectID, name string) (*models.Page, error)
	GetPage(ctx context.Context, projectID, pageID string) (*models.Page, error)
	ListPages(ctx context.Context, projectID string) ([]models.Page, error)

	AddPrimitive(ctx context.Context, p models.Primitive) (*models.Primitive, error)
	AddPrimitives(ctx context.Context, prims []models.Primitive) ([]models.Primitive, error)
	GetPrimitive(ctx context.Context, projectID, id string) (*models.Primitive, error)
	DeletePrimitive(ctx context.Context, projectID, id string) error
	ListPrimitives(ctx context.Context, projectID string, stage models.Stage) ([]models.Primitive, error)

	GetCalibration(ctx context.Context, projectID string) (*models.Calibration, error)

	CreateRoomType(ctx context.Context, rt models.RoomType) (*models.RoomType, error)
	ListRoomTypes(ctx context.Context) ([]models.RoomType, error)
	CreateRoom(ctx context.Context, room models.Room) (*models.Room, error)
	DeleteRoom(ctx context.Context, projectID, roomID string) error
	CreateOpening(ctx context.Context, o models.Opening) (*models.Opening, error)

	SaveCatalogEntry(ctx context.Context, e models.CatalogEntry) (*models.CatalogEntry, error)
	ListCatalog(ctx context.Context, ownerID, projectID string, stage models.Stage) ([]models.CatalogEntry, error)

	Snapshot(ctx context.Context, projectID string) (pipeline.Snapshot, error)
}

// ============================================================
// Estimator Handler
// ============================================================

type EstimatorHandler struct {
	store        Store
	calibrations *calibration.Registry
	cfg          pipeline.Config
	pdf          export.PDFOptions
	plans        *storage.PlanStorage
}

func NewEstimatorHandler(store Store, calibrations *calibration.Registry, cfg pipeline.Config, pdf export.PDFOptions) *EstimatorHandler {
	return &EstimatorHandler{
		store:        store,
		calibrations: calibrations,
		cfg:          cfg,
		pdf:          pdf,
	}
}

// WithPlanStorage включает сохранение исходных файлов планов при импорте.
func (h *EstimatorHandler) WithPlanStorage(plans *storage.PlanStorage) *EstimatorHandler {
	h.plans = plans
	return h
}

// Register вешает маршруты сервиса на роутер.
func (h *EstimatorHandler) Register(r fiber.Router) {
	r.Post("/projects", h.CreateProject)
	r.Get("/projects/:id", h.GetProject)
	r.Post("/projects/:id/pages", h.CreatePage)

	r.Post("/projects/:id/pages/:page/primitives", h.AddPrimitive)
	r.Post("/projects/:id/pages/:page/import", h.ImportSVG)
	r.Get("/projects/:id/pages/:page/plan", h.GetPlan)
	r.Get("/projects/:id/primitives", h.ListPrimitives)
	r.Delete("/projects/:id/primitives/:primitiveId", h.DeletePrimitive)

	r.Post("/projects/:id/rooms", h.CreateRoom)
	r.Delete("/projects/:id/rooms/:roomId", h.DeleteRoom)
	r.Post("/projects/:id/openings", h.CreateOpening)
	r.Post("/room-types", h.CreateRoomType)
	r.Get("/room-types", h.ListRoomTypes)
	r.Post("/catalog", h.SaveDefaultCatalogEntry)
	r.Post("/projects/:id/catalog", h.SaveProjectCatalogEntry)
	r.Get("/projects/:id/catalog/:stage", h.ListCatalog)

	r.Get("/projects/:id/calibration", h.GetCalibration)
	r.Post("/projects/:id/calibration/line", h.ProposeCalibration)
	r.Post("/projects/:id/calibration/confirm", h.ConfirmCalibration)
	r.Post("/projects/:id/calibration/cancel", h.CancelCalibration)

	r.Get("/projects/:id/stages/:stage", h.StageTotals)
	r.Get("/projects/:id/rooms/quantities", h.RoomQuantities)
	r.Get("/projects/:id/report", h.Report)
	r.Get("/projects/:id/estimate", h.Estimate)
	r.Get("/projects/:id/measurements", h.Measurements)
	r.Get("/projects/:id/estimate/export/excel", h.ExportExcel)
	r.Get("/projects/:id/estimate/export/pdf", h.ExportPDF)
}

// fail переводит ошибку домена в HTTP-ответ.
func fail(c fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrInvalid),
		errors.Is(err, calibration.ErrNotALine),
		errors.Is(err, calibration.ErrNotASegment),
		errors.Is(err, calibration.ErrZeroLength),
		errors.Is(err, calibration.ErrInvalidLength),
		errors.Is(err, calibration.ErrInvalidHeight):
		status = http.StatusBadRequest
	case errors.Is(err, calibration.ErrNoPending),
		errors.Is(err, models.ErrMissingScale):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Printf("[ESTIMATOR] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
