package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"water_tank/internal/logger"
	"water_tank/internal/metrics"
	"water_tank/internal/models"
	"water_tank/internal/pubsub"
	"water_tank/internal/repository"
)

type TankService struct {
	repo  repository.TankRepo
	pub   Publisher
	topic string
	log   *logger.Logger

	// mu serializes read-modify-write cycles from the API and from ingestion.
	mu       sync.Mutex
	onChange []func(ctx context.Context)
}

func NewTankService(repo repository.TankRepo, pub Publisher, topic string, log *logger.Logger) *TankService {
	return &TankService{repo: repo, pub: pub, topic: topic, log: log}
}

// OnChange registers fn to run after a definition change (save, delete).
func (s *TankService) OnChange(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *TankService) List(ctx context.Context) ([]models.Tank, error) {
	return s.repo.List(ctx)
}

func (s *TankService) Snapshot(ctx context.Context) (models.Snapshot, error) {
	tanks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return models.SnapshotOf(tanks), nil
}

func (s *TankService) Get(ctx context.Context, id string) (models.Tank, error) {
	return s.repo.Get(ctx, id)
}

// Save upserts the definition part of t. The reading of an existing tank
// is kept, since only ingestion may change it.
func (s *TankService) Save(ctx context.Context, t models.Tank) (models.Tank, error) {
	t.ID = strings.TrimSpace(t.ID)
	t.Label = strings.TrimSpace(t.Label)
	if err := validateTank(t); err != nil {
		return models.Tank{}, err
	}

	s.mu.Lock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	} else if prev, err := s.repo.Get(ctx, t.ID); err == nil {
		t.Percentage = prev.Percentage
		t.InvalidSensorMeasurement = prev.InvalidSensorMeasurement
		t.LastUpdated = prev.LastUpdated
		t.SensorMeasurement = prev.SensorMeasurement
		t.State = prev.State
	} else if !errors.Is(err, repository.ErrTankNotFound) {
		s.mu.Unlock()
		return models.Tank{}, err
	}
	err := s.repo.Save(ctx, t)
	s.mu.Unlock()
	if err != nil {
		return models.Tank{}, err
	}

	s.changed(ctx)
	return t, nil
}

func (s *TankService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	err := s.repo.Delete(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *TankService) SaveOrder(ctx context.Context, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: tank %s listed twice", ErrInvalidTank, id)
		}
		seen[id] = struct{}{}
	}

	s.mu.Lock()
	err := s.repo.SetOrder(ctx, ids)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publishLogged(ctx)
	return nil
}

// Mutate runs fn over every stored tank, saves the ones fn reports as changed
// and publishes a fresh snapshot once if anything was saved.
func (s *TankService) Mutate(ctx context.Context, fn func(t *models.Tank) bool) (int, error) {
	s.mu.Lock()
	tanks, err := s.repo.List(ctx)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	updated := 0
	for i := range tanks {
		if !fn(&tanks[i]) {
			continue
		}
		if err := s.repo.Save(ctx, tanks[i]); err != nil {
			s.mu.Unlock()
			return updated, err
		}
		updated++
	}
	s.mu.Unlock()

	if updated > 0 {
		s.publishLogged(ctx)
	}
	return updated, nil
}

// Publish sends the full snapshot, ordered by tank order, retained on the data topic.
func (s *TankService) Publish(ctx context.Context) error {
	if s.pub == nil || s.topic == "" {
		return nil
	}
	tanks, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(models.SnapshotOf(tanks).Ordered())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	err = s.pub.Publish(ctx, s.topic, pubsub.QoSAtLeastOnce, true, payload)
	metrics.ObserveSnapshotPublish(err == nil)
	if err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

func (s *TankService) publishLogged(ctx context.Context) {
	if err := s.Publish(ctx); err != nil {
		s.log.Warnw("snapshot_publish_failed", "topic", s.topic, "error", err)
	}
}

func (s *TankService) changed(ctx context.Context) {
	s.mu.Lock()
	hooks := append([]func(context.Context){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}
	s.publishLogged(ctx)
}

func validateTank(t models.Tank) error {
	if t.Label == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidTank)
	}
	switch t.Type {
	case models.TankRectangular, models.TankCylindricalHorizontal,
		models.TankCylindricalVertical, models.TankElliptical:
	default:
		return fmt.Errorf("%w: unknown type %d", ErrInvalidTank, t.Type)
	}
	for _, u := range []models.LengthUnit{t.WaterTankUnits, t.SensorUnits} {
		if u < models.Centimeters || u > models.Feet {
			return fmt.Errorf("%w: unknown unit %d", ErrInvalidTank, u)
		}
	}
	return nil
}
