package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
)

// Face verification errors.
var (
	ErrBadDescriptor   = errors.New("descriptor must have exactly 128 dimensions")
	ErrFaceNotEnrolled = errors.New("no face enrolled for this user")
)

// FaceService stores and matches face descriptors. The descriptors are
// produced client-side; the server only does the distance check so the
// enrolled embedding never leaves the backend.
type FaceService struct {
	faceRepo  *repository.FaceRepository
	threshold float64
	log       zerolog.Logger
}

// NewFaceService creates a new FaceService.
func NewFaceService(faceRepo *repository.FaceRepository, threshold float64, log zerolog.Logger) *FaceService {
	return &FaceService{
		faceRepo:  faceRepo,
		threshold: threshold,
		log:       log.With().Str("component", "face_service").Logger(),
	}
}

// Register enrolls (or replaces) a user's face descriptor.
func (s *FaceService) Register(ctx context.Context, userID int, descriptor []float64) error {
	if len(descriptor) != model.DescriptorLength {
		return ErrBadDescriptor
	}
	fd := &model.FaceDescriptor{
		UserID:     userID,
		Descriptor: descriptor,
		EnrolledAt: time.Now(),
	}
	if err := s.faceRepo.Upsert(ctx, fd); err != nil {
		return fmt.Errorf("store descriptor: %w", err)
	}
	s.log.Info().Int("user_id", userID).Msg("Face descriptor enrolled")
	return nil
}

// Verify compares a live descriptor against the enrolled one. A match is a
// Euclidean distance strictly below the configured threshold.
func (s *FaceService) Verify(ctx context.Context, userID int, descriptor []float64) (bool, float64, error) {
	if len(descriptor) != model.DescriptorLength {
		return false, 0, ErrBadDescriptor
	}

	enrolled, err := s.faceRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, 0, ErrFaceNotEnrolled
		}
		return false, 0, fmt.Errorf("get descriptor: %w", err)
	}

	dist := Distance(enrolled.Descriptor, descriptor)
	return dist < s.threshold, dist, nil
}

// Distance computes the Euclidean distance between two descriptors.
func Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
