package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// LivenessProbe проверяет, что шлюз работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// Readiness проверяет доступность upstream-сервисов по их /health/live.
type Readiness struct {
	upstreams map[string]string
	client    *http.Client
}

func NewReadiness(upstreams map[string]string, timeout time.Duration) *Readiness {
	return &Readiness{
		upstreams: upstreams,
		client:    &http.Client{Timeout: timeout},
	}
}

// Probe отдаёт 503, если хотя бы один upstream не ответил 200.
func (r *Readiness) Probe(c fiber.Ctx) error {
	services := fiber.Map{}
	ready := true

	for name, baseURL := range r.upstreams {
		if err := r.ping(c.Context(), baseURL+"/health/live"); err != nil {
			log.Printf("[HEALTH] %s not ready: %v", name, err)
			services[name] = "down"
			ready = false
			continue
		}
		services[name] = "up"
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "not ready",
			"services": services,
		})
	}
	return c.JSON(fiber.Map{
		"status":   "ready",
		"services": services,
	})
}

func (r *Readiness) ping(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fiber.NewError(resp.StatusCode, resp.Status)
	}
	return nil
}
