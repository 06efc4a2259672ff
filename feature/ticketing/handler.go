package ticketing

import (
	"errors"

	"ticketing-sync/core/logger"
	"ticketing-sync/feature/ticketing/providers/factory"
	"ticketing-sync/feature/ticketing/store"
	"ticketing-sync/feature/ticketing/synchronizer"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for ticketing.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ConnectionStatus is the body returned by a connection test.
type ConnectionStatus struct {
	Connected bool `json:"connected"`
}

// RegisterRoutes registers the ticketing routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	orgs := app.Group("/organizations/:organizationId")
	orgs.Post("/synchronize", h.HandleSynchronize)
	orgs.Get("/ticketing-systems", h.HandleListTicketingSystems)

	app.Post("/ticketing-systems/:id/test", h.HandleTestConnection)
}

// HandleSynchronize synchronizes every active connection of an organization.
// @Summary Synchronize Organization
// @Description Fetch every active connection of the organization and reconcile it with the ledger. Failed connections are listed in the report.
// @Tags ticketing
// @Produce json
// @Param organizationId path string true "Organization ID"
// @Success 200 {object} synchronizer.Report "Synchronization report"
// @Failure 409 {object} map[string]string "Synchronization already in progress"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /organizations/{organizationId}/synchronize [post]
func (h *Handler) HandleSynchronize(c *fiber.Ctx) error {
	org := c.Params("organizationId")
	l := logger.WithOrganization(logger.WithRayID(h.service.logger, c), org)

	report, err := h.service.Synchronize(c.UserContext(), org)
	if errors.Is(err, synchronizer.ErrSynchronizationInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if report == nil {
		if err == nil {
			err = errors.New("synchronization produced no report")
		}
		l.Error("Synchronization failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		l.Warn("Synchronization finished with failed connections", zap.Int("failed", report.Failed()))
	}

	return c.JSON(report)
}

// HandleListTicketingSystems lists the active connections of an organization.
// @Summary List Ticketing Systems
// @Description List the active connections of an organization with their watermark and last error.
// @Tags ticketing
// @Produce json
// @Param organizationId path string true "Organization ID"
// @Success 200 {array} models.TicketingSystem "Connections"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /organizations/{organizationId}/ticketing-systems [get]
func (h *Handler) HandleListTicketingSystems(c *fiber.Ctx) error {
	org := c.Params("organizationId")

	systems, err := h.service.ListTicketingSystems(c.UserContext(), org)
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Listing ticketing systems failed", zap.String("organization_id", org), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(systems)
}

// HandleTestConnection checks the credentials of one connection.
// @Summary Test Connection
// @Description Check that the stored credentials of a connection are accepted by its provider.
// @Tags ticketing
// @Produce json
// @Param id path string true "Ticketing system ID"
// @Success 200 {object} ConnectionStatus "Connection status"
// @Failure 404 {object} map[string]string "Unknown ticketing system"
// @Failure 422 {object} map[string]string "Unsupported provider"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /ticketing-systems/{id}/test [post]
func (h *Handler) HandleTestConnection(c *fiber.Ctx) error {
	id := c.Params("id")

	connected, err := h.service.TestConnection(c.UserContext(), id)
	var unsupported *factory.UnsupportedProviderError
	switch {
	case errors.Is(err, store.ErrTicketingSystemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.As(err, &unsupported):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	case err != nil:
		logger.WithRayID(h.service.logger, c).Error("Connection test failed", zap.String("ticketing_system_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(ConnectionStatus{Connected: connected})
}
