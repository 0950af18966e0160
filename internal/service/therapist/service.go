// Package therapist finds mental-health professionals near a location.
package therapist

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	therapistmodel "github.com/zhouzirui/mindbloom/backend/internal/model/therapist"
)

// ErrInvalidCoordinates is returned for latitudes or longitudes out of range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Searcher is the AI operation behind the search.
type Searcher interface {
	NearbyTherapists(ctx context.Context, lat, lng float64) (string, error)
}

// Service runs nearby searches. Collaborator failures never surface as
// errors; they produce an empty list.
type Service struct {
	searcher Searcher
	logger   *zap.Logger
}

// NewService creates the service. A nil searcher always yields no results.
func NewService(searcher Searcher, logger *zap.Logger) *Service {
	return &Service{searcher: searcher, logger: logging.OrNop(logger)}
}

// Nearby returns therapists around (lat, lng) in the order ranked by the model.
func (s *Service) Nearby(ctx context.Context, lat, lng float64) ([]therapistmodel.Therapist, error) {
	if !validCoordinate(lat, 90) || !validCoordinate(lng, 180) {
		return nil, ErrInvalidCoordinates
	}
	if s.searcher == nil {
		s.logger.Warn("therapist search unavailable: ai client not configured")
		return []therapistmodel.Therapist{}, nil
	}

	raw, err := s.searcher.NearbyTherapists(ctx, lat, lng)
	if err != nil {
		s.logger.Warn("therapist search failed", zap.Error(err))
		return []therapistmodel.Therapist{}, nil
	}

	list, ok := ParseList(raw)
	if !ok {
		s.logger.Warn("therapist search returned unparseable output", zap.Int("length", len(raw)))
	}
	return list, nil
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -limit && v <= limit
}
