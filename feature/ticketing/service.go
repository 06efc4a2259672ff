package ticketing

import (
	"context"

	"ticketing-sync/feature/ticketing/models"
	"ticketing-sync/feature/ticketing/synchronizer"

	"go.uber.org/zap"
)

// Runner runs synchronizations and connection checks.
type Runner interface {
	Synchronize(ctx context.Context, organizationID string) (*synchronizer.Report, error)
	TestConnection(ctx context.Context, systemID string) (bool, error)
}

// Directory lists stored connections.
type Directory interface {
	ListActiveTicketingSystems(ctx context.Context, organizationID string) ([]models.TicketingSystem, error)
}

// Service handles ticketing operations.
type Service struct {
	runner    Runner
	directory Directory
	logger    *zap.Logger
}

// NewService creates a new ticketing service.
func NewService(runner Runner, directory Directory, logger *zap.Logger) *Service {
	return &Service{runner: runner, directory: directory, logger: logger}
}

// Synchronize synchronizes one organization.
func (s *Service) Synchronize(ctx context.Context, organizationID string) (*synchronizer.Report, error) {
	return s.runner.Synchronize(ctx, organizationID)
}

// ListTicketingSystems returns the active connections of an organization.
func (s *Service) ListTicketingSystems(ctx context.Context, organizationID string) ([]models.TicketingSystem, error) {
	return s.directory.ListActiveTicketingSystems(ctx, organizationID)
}

// TestConnection checks the credentials of one connection.
func (s *Service) TestConnection(ctx context.Context, systemID string) (bool, error) {
	return s.runner.TestConnection(ctx, systemID)
}
