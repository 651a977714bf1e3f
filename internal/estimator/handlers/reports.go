package handlers

import (
	"fmt"
	"net/url"

	"renovation-estimator/internal/estimator/aggregate"
	"renovation-estimator/internal/estimator/calibration"
	"renovation-estimator/internal/estimator/export"
	"renovation-estimator/internal/estimator/models"
	"renovation-estimator/internal/estimator/pipeline"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Reports
// ============================================================

func (h *EstimatorHandler) run(c fiber.Ctx) (pipeline.Snapshot, pipeline.Report, error) {
	snap, err := h.store.Snapshot(c.Context(), c.Params("id"))
	if err != nil {
		return snap, pipeline.Report{}, err
	}
	return snap, pipeline.Run(snap, h.cfg), nil
}

type stageResponse struct {
	Stage          models.Stage              `json:"stage"`
	ScaleAvailable bool                      `json:"scaleAvailable"`
	Totals         aggregate.StageTotals     `json:"totals"`
	Physical       *aggregate.PhysicalTotals `json:"physical,omitempty"`
}

// StageTotals отдаёт итоги одного этапа. Без масштаба этапы, кроме
// калибровки, недоступны.
func (h *EstimatorHandler) StageTotals(c fiber.Ctx) error {
	stage := models.Stage(c.Params("stage"))
	if !stage.Valid() {
		return badRequest(c, "unknown stage")
	}

	snap, rep, err := h.run(c)
	if err != nil {
		return fail(c, err)
	}
	if !calibration.StageEnabled(stage, snap.Calibration) {
		return fail(c, models.ErrMissingScale)
	}

	resp := stageResponse{
		Stage:          stage,
		ScaleAvailable: rep.ScaleAvailable,
		Totals:         rep.Stages[stage],
	}
	if phys, ok := rep.Physical[stage]; ok {
		resp.Physical = &phys
	}
	return c.JSON(resp)
}

func (h *EstimatorHandler) RoomQuantities(c fiber.Ctx) error {
	_, rep, err := h.run(c)
	if err != nil {
		return fail(c, err)
	}
	if !rep.ScaleAvailable {
		return fail(c, models.ErrMissingScale)
	}
	return c.JSON(rep.Netting)
}

func (h *EstimatorHandler) Report(c fiber.Ctx) error {
	_, rep, err := h.run(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rep)
}

func (h *EstimatorHandler) Estimate(c fiber.Ctx) error {
	_, rep, err := h.run(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rep.Estimate)
}

func (h *EstimatorHandler) Measurements(c fiber.Ctx) error {
	_, rep, err := h.run(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rep.Measurements)
}

// ============================================================
// Export
// ============================================================

func (h *EstimatorHandler) ExportExcel(c fiber.Ctx) error {
	snap, rep, err := h.run(c)
	if err != nil {
		return fail(c, err)
	}
	data, err := export.EstimateExcel(rep, "Смета: "+snap.Project.Name)
	if err != nil {
		return fail(c, err)
	}
	setAttachment(c, "estimate.xlsx")
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(data)
}

func (h *EstimatorHandler) ExportPDF(c fiber.Ctx) error {
	snap, rep, err := h.run(c)
	if err != nil {
		return fail(c, err)
	}
	data, err := export.EstimatePDF(rep, "Смета: "+snap.Project.Name, h.pdf)
	if err != nil {
		return fail(c, err)
	}
	setAttachment(c, "estimate.pdf")
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(data)
}

func setAttachment(c fiber.Ctx, filename string) {
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename)))
}
