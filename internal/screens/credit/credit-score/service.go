// Package creditscore shows the business credit score and triggers a
// recalculation.
package creditscore

import (
	"context"

	"borrower-client/internal/common/logger"
	"borrower-client/internal/models"
)

type CreditAPI interface {
	GetCreditScore(ctx context.Context) (*models.CreditScore, error)
	RecalculateCreditScore(ctx context.Context) (*models.CreditScore, error)
}

type Service struct {
	api    CreditAPI
	logger logger.Logger
}

func NewService(api CreditAPI, log logger.Logger) *Service {
	return &Service{api: api, logger: log}
}

func (s *Service) Get(ctx context.Context) (*models.CreditScore, error) {
	return s.api.GetCreditScore(ctx)
}

// Recalculate asks the backend to rescore and returns the new result.
func (s *Service) Recalculate(ctx context.Context) (*models.CreditScore, error) {
	score, err := s.api.RecalculateCreditScore(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("credit score recalculated", map[string]interface{}{
		"finalScore": score.FinalScore.String(),
		"riskGrade":  string(score.RiskGrade),
	})
	return score, nil
}

// GradeLabel describes a risk grade.
func GradeLabel(g models.RiskGrade) string {
	switch g {
	case models.RiskGradeA:
		return "Low risk"
	case models.RiskGradeB:
		return "Moderate risk"
	case models.RiskGradeC:
		return "High risk"
	}
	return "Unrated"
}
