package handlers

import (
	"encoding/json"
	"net/http"

	"renovation-estimator/internal/estimator/calibration"
	"renovation-estimator/internal/estimator/models"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Calibration
// ============================================================

type calibrationResponse struct {
	Calibration *models.Calibration  `json:"calibration"`
	Pending     *calibration.Pending `json:"pending,omitempty"`
}

func (h *EstimatorHandler) GetCalibration(c fiber.Ctx) error {
	projectID := c.Params("id")
	if _, err := h.store.GetProject(c.Context(), projectID); err != nil {
		return fail(c, err)
	}
	cal, err := h.store.GetCalibration(c.Context(), projectID)
	if err != nil {
		return fail(c, err)
	}

	resp := calibrationResponse{Calibration: cal}
	if p, ok := h.calibrations.Pending(projectID); ok {
		resp.Pending = &p
	}
	return c.JSON(resp)
}

// proposeRequest: линия либо уже сохранена (primitiveId), либо передаётся целиком.
type proposeRequest struct {
	PrimitiveID string            `json:"primitiveId"`
	Primitive   *models.Primitive `json:"primitive"`
}

// ProposeCalibration принимает линию калибровки; новая линия заменяет прежнюю.
func (h *EstimatorHandler) ProposeCalibration(c fiber.Ctx) error {
	projectID := c.Params("id")

	var req proposeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, err.Error())
	}
	if _, err := h.store.GetProject(c.Context(), projectID); err != nil {
		return fail(c, err)
	}

	var prim models.Primitive
	switch {
	case req.PrimitiveID != "":
		p, err := h.store.GetPrimitive(c.Context(), projectID, req.PrimitiveID)
		if err != nil {
			return fail(c, err)
		}
		prim = *p
	case req.Primitive != nil:
		prim = *req.Primitive
	default:
		return badRequest(c, "primitiveId or primitive required")
	}

	pending, err := h.calibrations.Propose(projectID, prim)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(pending)
}

// confirmRequest: длины приходят строкой, как их ввёл пользователь («2,7»).
type confirmRequest struct {
	PendingID       string `json:"pendingId"`
	KnownLengthMm   string `json:"knownLengthMm"`
	CeilingHeightMm string `json:"ceilingHeightMm"`
}

func (h *EstimatorHandler) ConfirmCalibration(c fiber.Ctx) error {
	projectID := c.Params("id")

	var req confirmRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid json")
	}

	known, err := calibration.ParseLength(req.KnownLengthMm)
	if err != nil {
		return fail(c, err)
	}
	var height float64
	if req.CeilingHeightMm != "" {
		if height, err = calibration.ParseLength(req.CeilingHeightMm); err != nil {
			return fail(c, calibration.ErrInvalidHeight)
		}
	}

	cal, err := h.calibrations.Confirm(c.Context(), h.store, projectID, req.PendingID, known, height)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(cal)
}

func (h *EstimatorHandler) CancelCalibration(c fiber.Ctx) error {
	if !h.calibrations.Cancel(c.Params("id")) {
		return fail(c, calibration.ErrNoPending)
	}
	return c.SendStatus(http.StatusNoContent)
}
