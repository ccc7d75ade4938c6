package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"water_tank/internal/logger"
	"water_tank/internal/models"
	"water_tank/internal/pubsub"
	"water_tank/internal/repository"
)

func f(v float64) *float64 { return &v }

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)

// ---- repositories ----

type memTankRepo struct {
	mu    sync.Mutex
	tanks map[string]models.Tank
	saves int
	err   error
}

func newMemTankRepo(tanks ...models.Tank) *memTankRepo {
	r := &memTankRepo{tanks: map[string]models.Tank{}}
	for _, t := range tanks {
		r.tanks[t.ID] = t
	}
	return r
}

func (r *memTankRepo) List(context.Context) ([]models.Tank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return models.SnapshotOf(r.values()).Ordered(), nil
}

func (r *memTankRepo) values() []models.Tank {
	out := make([]models.Tank, 0, len(r.tanks))
	for _, t := range r.tanks {
		out = append(out, t)
	}
	return out
}

func (r *memTankRepo) Get(_ context.Context, id string) (models.Tank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tanks[id]
	if !ok {
		return models.Tank{}, repository.ErrTankNotFound
	}
	return t, nil
}

func (r *memTankRepo) Save(_ context.Context, t models.Tank) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saves++
	r.tanks[t.ID] = t
	return nil
}

func (r *memTankRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tanks[id]; !ok {
		return repository.ErrTankNotFound
	}
	delete(r.tanks, id)
	return nil
}

func (r *memTankRepo) SetOrder(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if _, ok := r.tanks[id]; !ok {
			return repository.ErrTankNotFound
		}
	}
	for pos, id := range ids {
		t := r.tanks[id]
		t.Order = pos
		r.tanks[id] = t
	}
	return nil
}

type memSettingsRepo struct {
	s     models.Settings
	found bool
	err   error
}

func (r *memSettingsRepo) Load(context.Context) (models.Settings, bool, error) {
	return r.s, r.found, r.err
}

func (r *memSettingsRepo) Save(_ context.Context, s models.Settings) error {
	if r.err != nil {
		return r.err
	}
	r.s, r.found = s, true
	return nil
}

type memSensorLogRepo struct {
	mu      sync.Mutex
	entries []models.SensorLogEntry // newest first
	keeps   []int
}

func (r *memSensorLogRepo) Append(_ context.Context, e models.SensorLogEntry, keep int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([]models.SensorLogEntry{e}, r.entries...)
	if keep > 0 && len(r.entries) > keep {
		r.entries = r.entries[:keep]
	}
	r.keeps = append(r.keeps, keep)
	return nil
}

func (r *memSensorLogRepo) List(_ context.Context, limit int) ([]models.SensorLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > 0 && limit < len(r.entries) {
		return append([]models.SensorLogEntry(nil), r.entries[:limit]...), nil
	}
	return append([]models.SensorLogEntry(nil), r.entries...), nil
}

func (r *memSensorLogRepo) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	return nil
}

// ---- broker ----

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, qos byte, retain bool, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic, qos, retain, append([]byte(nil), payload...)})
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func (p *fakePublisher) last() published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.msgs[len(p.msgs)-1]
}

type fakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]pubsub.Handler
	unsubbed []string
	err      error
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: map[string]pubsub.Handler{}}
}

func (s *fakeSubscriber) Subscribe(_ context.Context, topic string, _ byte, h pubsub.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.handlers[topic] = h
	return nil
}

func (s *fakeSubscriber) Unsubscribe(_ context.Context, topics ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range topics {
		delete(s.handlers, t)
	}
	s.unsubbed = append(s.unsubbed, topics...)
	return nil
}

func (s *fakeSubscriber) topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.handlers))
	for t := range s.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s *fakeSubscriber) deliver(topic string, payload []byte) {
	s.mu.Lock()
	h := s.handlers[topic]
	s.mu.Unlock()
	if h != nil {
		h(topic, payload)
	}
}

var errBoom = errors.New("boom")

func nopLog() *logger.Logger { return logger.NewNop() }
