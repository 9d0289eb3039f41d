package controllers

import (
	"yuksekolah_go/services"

	"github.com/gofiber/fiber/v2"
)

// HealthController serves the aggregate health report.
type HealthController struct {
	service *services.HealthService
}

func NewHealthController(service *services.HealthService) *HealthController {
	if service == nil {
		service = services.NewHealthService("", "")
	}
	return &HealthController{service: service}
}

// Health returns the dependency and runtime health report. Critical
// dependencies being down yields a 503 so load balancers can react.
func (hc *HealthController) Health(c *fiber.Ctx) error {
	report := hc.service.GetHealthReport()
	return c.Status(hc.service.HTTPStatusForOverall(report.Status)).JSON(report)
}
