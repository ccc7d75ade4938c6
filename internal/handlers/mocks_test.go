package handlers

import (
	"context"
	"fmt"
	"io"
	"sort"

	"water_tank/internal/models"
	"water_tank/internal/repository"
	"water_tank/internal/service"
)

// --- service stubs ---

type mockTanks struct {
	tanks     map[string]models.Tank
	saveErr   error
	listErr   error
	orderErr  error
	saved     []models.Tank
	order     []string
	published int
}

func newMockTanks(ts ...models.Tank) *mockTanks {
	m := &mockTanks{tanks: map[string]models.Tank{}}
	for _, t := range ts {
		m.tanks[t.ID] = t
	}
	return m
}

func (m *mockTanks) List(ctx context.Context) ([]models.Tank, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.snapshot().Ordered(), nil
}

func (m *mockTanks) snapshot() models.Snapshot {
	snap := models.Snapshot{}
	for id, t := range m.tanks {
		snap[id] = t
	}
	return snap
}

func (m *mockTanks) Snapshot(ctx context.Context) (models.Snapshot, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.snapshot(), nil
}

func (m *mockTanks) Get(ctx context.Context, id string) (models.Tank, error) {
	t, ok := m.tanks[id]
	if !ok {
		return models.Tank{}, repository.ErrTankNotFound
	}
	return t, nil
}

func (m *mockTanks) Save(ctx context.Context, t models.Tank) (models.Tank, error) {
	if m.saveErr != nil {
		return models.Tank{}, m.saveErr
	}
	if t.ID == "" {
		t.ID = "generated"
	}
	m.saved = append(m.saved, t)
	m.tanks[t.ID] = t
	return t, nil
}

func (m *mockTanks) Delete(ctx context.Context, id string) error {
	if _, ok := m.tanks[id]; !ok {
		return repository.ErrTankNotFound
	}
	delete(m.tanks, id)
	return nil
}

func (m *mockTanks) SaveOrder(ctx context.Context, ids []string) error {
	if m.orderErr != nil {
		return m.orderErr
	}
	m.order = ids
	return nil
}

func (m *mockTanks) Publish(ctx context.Context) error {
	m.published++
	return nil
}

type mockSettings struct {
	st      models.Settings
	mq      models.MQTTSettings
	getErr  error
	saveErr error
}

func (m *mockSettings) Get(ctx context.Context) (models.Settings, error) {
	return m.st, m.getErr
}

func (m *mockSettings) Save(ctx context.Context, s models.Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.st = s
	return nil
}

func (m *mockSettings) MQTT(ctx context.Context) models.MQTTSettings { return m.mq }

type mockIngest struct {
	tanks *mockTanks
	err   error
}

func (m *mockIngest) HandleSensorMessage(ctx context.Context, topic string, payload []byte) error {
	return m.err
}

func (m *mockIngest) HandleDataRequest(ctx context.Context) error {
	if m.err != nil {
		return m.err
	}
	return m.tanks.Publish(ctx)
}

type mockSensorLog struct {
	entries []models.SensorLogEntry
	cleared bool
	err     error
}

func (m *mockSensorLog) Record(ctx context.Context, topic string, payload []byte, keep int) error {
	return nil
}

func (m *mockSensorLog) List(ctx context.Context, limit int) ([]models.SensorLogEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := append([]models.SensorLogEntry(nil), m.entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockSensorLog) Clear(ctx context.Context) error {
	m.cleared = true
	m.entries = nil
	return m.err
}

func (m *mockSensorLog) Export(ctx context.Context, format string, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	if format != service.FormatCSV {
		_, err := fmt.Fprintf(w, "%s:%d", format, len(m.entries))
		return err
	}
	_, err := io.WriteString(w, "Date,MQTT Topic,MQTT Payload\n")
	return err
}
