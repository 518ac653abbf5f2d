// Package dashboard renders the borrower's home screen.
package dashboard

import (
	"context"

	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"

	"golang.org/x/sync/errgroup"
)

type Service struct {
	api         DashboardAPI
	logger      logger.Logger
	displayName string
}

func NewService(api DashboardAPI, displayName string, log logger.Logger) *Service {
	return &Service{api: api, displayName: displayName, logger: log}
}

func (s *Service) Summary(ctx context.Context) (*models.Dashboard, error) {
	d, err := s.api.GetDashboard(ctx)
	if err != nil {
		s.logger.Warn("failed to load dashboard", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	return d, nil
}

// Overview loads profile, credit score and invoices concurrently. The first
// failure cancels the other calls and nothing partial is returned.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.api.GetProfile(gctx)
		if err != nil {
			return err
		}
		if p.DisplayName == "" {
			p.DisplayName = s.displayName
		}
		out.Profile = p
		return nil
	})
	g.Go(func() error {
		score, err := s.api.GetCreditScore(gctx)
		if err != nil {
			return err
		}
		out.Score = score
		return nil
	})
	g.Go(func() error {
		invoices, err := s.api.ListInvoices(gctx, "")
		if err != nil {
			return err
		}
		out.Invoices = invoices
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("failed to load overview", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	return &out, nil
}
