// Package profile shows the signed-in business.
package profile

import (
	"context"

	"borrower-client/internal/models"
)

type ProfileAPI interface {
	GetProfile(ctx context.Context) (*models.BusinessProfile, error)
}

type Service struct {
	api         ProfileAPI
	displayName string
}

func NewService(api ProfileAPI, displayName string) *Service {
	return &Service{api: api, displayName: displayName}
}

// Get loads the profile. The backend has no business name field, so the
// configured placeholder is attached when the response carries none.
func (s *Service) Get(ctx context.Context) (*models.BusinessProfile, error) {
	p, err := s.api.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	if p.DisplayName == "" {
		p.DisplayName = s.displayName
	}
	return p, nil
}
