package season

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/predyx/backend/internal/audit"
	"github.com/predyx/backend/internal/models"
	"github.com/predyx/backend/internal/repository"
)

// ErrNoActiveSeason is returned when no season is currently running.
var ErrNoActiveSeason = errors.New("no active season")

// Service manages the competition calendar. At most one season is
// active at any time.
type Service struct {
	seasons  repository.SeasonRepo
	accounts repository.AccountRepo
	recorder audit.Recorder
}

// NewService creates a new season service
func NewService(seasons repository.SeasonRepo, accounts repository.AccountRepo, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Service{seasons: seasons, accounts: accounts, recorder: recorder}
}

// Active returns the currently running season.
func (s *Service) Active(ctx context.Context) (*models.Season, error) {
	season, err := s.seasons.FindActive(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveSeason
		}
		return nil, err
	}
	return season, nil
}

// Start opens a new season: the previous active season is deactivated
// and every account's season points reset to zero.
func (s *Service) Start(ctx context.Context, number int, startsAt, endsAt time.Time) (*models.Season, error) {
	if !endsAt.After(startsAt) {
		return nil, fmt.Errorf("season %d ends before it starts", number)
	}

	previous, err := s.seasons.FindActive(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if previous != nil {
		if err := s.seasons.Deactivate(ctx, previous.ID); err != nil {
			return nil, err
		}
	}

	season := &models.Season{
		Number:   number,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		IsActive: true,
	}
	if err := s.seasons.Create(ctx, season); err != nil {
		return nil, err
	}

	if err := s.accounts.ResetSeasonPoints(ctx, season.ID); err != nil {
		return nil, fmt.Errorf("season %d created but season points not reset: %w", number, err)
	}

	s.recorder.Record(ctx, audit.EventTypeSeasonChange, "started", "", map[string]interface{}{
		"season_number": number,
		"season_id":     season.ID.String(),
	})

	return season, nil
}
