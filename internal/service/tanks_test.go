package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"water_tank/internal/models"
	"water_tank/internal/pubsub"
	"water_tank/internal/repository"
)

func newTankSvc(repo *memTankRepo, pub Publisher) *TankService {
	return NewTankService(repo, pub, "WaterTankData", nopLog())
}

func TestTankService_SaveValidates(t *testing.T) {
	svc := newTankSvc(newMemTankRepo(), &fakePublisher{})

	tests := []struct {
		name string
		tank models.Tank
	}{
		{"no label", models.Tank{Type: models.TankRectangular, WaterTankUnits: 1, SensorUnits: 1}},
		{"bad type", models.Tank{Label: "x", Type: 7, WaterTankUnits: 1, SensorUnits: 1}},
		{"bad unit", models.Tank{Label: "x", Type: models.TankRectangular, WaterTankUnits: 1, SensorUnits: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Save(context.Background(), tt.tank); !errors.Is(err, ErrInvalidTank) {
				t.Fatalf("want ErrInvalidTank, got %v", err)
			}
		})
	}
}

func TestTankService_SaveAssignsIDAndPublishes(t *testing.T) {
	repo := newMemTankRepo()
	pub := &fakePublisher{}
	svc := newTankSvc(repo, pub)

	tank := rectTank()
	tank.Label = "  Roof  "
	saved, err := svc.Save(context.Background(), tank)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" || saved.Label != "Roof" {
		t.Fatalf("unexpected saved tank: %+v", saved)
	}
	if _, err := repo.Get(context.Background(), saved.ID); err != nil {
		t.Fatalf("tank not stored: %v", err)
	}

	if pub.count() != 1 {
		t.Fatalf("want 1 publish, got %d", pub.count())
	}
	msg := pub.last()
	if msg.topic != "WaterTankData" || msg.qos != pubsub.QoSAtLeastOnce || !msg.retain {
		t.Fatalf("unexpected publish: %+v", msg)
	}
	var list []models.Tank
	if err := json.Unmarshal(msg.payload, &list); err != nil {
		t.Fatalf("payload is not an array: %v", err)
	}
	if len(list) != 1 || list[0].ID != saved.ID {
		t.Fatalf("unexpected payload: %s", msg.payload)
	}
}

func TestTankService_SaveKeepsReading(t *testing.T) {
	stored := rectTank()
	stored.ID, stored.Label = "a", "Roof"
	stored.Percentage = f(64)
	stored.InvalidSensorMeasurement = true
	stored.LastUpdated = models.NewTimestamp(testNow)
	stored.SensorMeasurement = f(72)
	stored.State = models.StateWarning
	repo := newMemTankRepo(stored)
	svc := newTankSvc(repo, &fakePublisher{})

	edit := rectTank()
	edit.ID, edit.Label = "a", "Roof east"
	edit.Percentage = f(1)
	edit.State = models.StateNormal
	if _, err := svc.Save(context.Background(), edit); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, _ := repo.Get(context.Background(), "a")
	if got.Label != "Roof east" {
		t.Fatalf("definition not updated: %+v", got)
	}
	if got.Percentage == nil || *got.Percentage != 64 || !got.InvalidSensorMeasurement ||
		!got.LastUpdated.Equal(testNow) || *got.SensorMeasurement != 72 || got.State != models.StateWarning {
		t.Fatalf("reading must be preserved, got %+v", got)
	}
}

func TestTankService_PublishFailureDoesNotFailSave(t *testing.T) {
	svc := newTankSvc(newMemTankRepo(), &fakePublisher{err: errBoom})

	tank := rectTank()
	tank.Label = "Roof"
	if _, err := svc.Save(context.Background(), tank); err != nil {
		t.Fatalf("Save should succeed when the broker is down: %v", err)
	}
	if err := svc.Publish(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("Publish should surface broker error, got %v", err)
	}
}

func TestTankService_DeleteRunsHooks(t *testing.T) {
	repo := newMemTankRepo(models.Tank{ID: "a", Label: "A"})
	pub := &fakePublisher{}
	svc := newTankSvc(repo, pub)

	calls := 0
	svc.OnChange(func(context.Context) { calls++ })

	if err := svc.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if calls != 1 || pub.count() != 1 {
		t.Fatalf("hooks=%d publishes=%d, want 1 and 1", calls, pub.count())
	}

	if err := svc.Delete(context.Background(), "a"); !errors.Is(err, repository.ErrTankNotFound) {
		t.Fatalf("want ErrTankNotFound, got %v", err)
	}
	if calls != 1 {
		t.Fatal("hooks must not run on failed delete")
	}
}

func TestTankService_SaveOrder(t *testing.T) {
	repo := newMemTankRepo(
		models.Tank{ID: "a", Label: "A", Order: 0},
		models.Tank{ID: "b", Label: "B", Order: 1},
	)
	pub := &fakePublisher{}
	svc := newTankSvc(repo, pub)

	if err := svc.SaveOrder(context.Background(), []string{"b", "a"}); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}
	list, _ := svc.List(context.Background())
	if list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("unexpected order: %s, %s", list[0].ID, list[1].ID)
	}
	if pub.count() != 1 {
		t.Fatalf("want 1 publish, got %d", pub.count())
	}

	if err := svc.SaveOrder(context.Background(), []string{"a", "a"}); !errors.Is(err, ErrInvalidTank) {
		t.Fatalf("want ErrInvalidTank for duplicates, got %v", err)
	}
}

func TestTankService_MutatePublishesOnce(t *testing.T) {
	repo := newMemTankRepo(
		models.Tank{ID: "a", SensorID: "s1"},
		models.Tank{ID: "b", SensorID: "s1"},
		models.Tank{ID: "c", SensorID: "s2"},
	)
	pub := &fakePublisher{}
	svc := newTankSvc(repo, pub)

	n, err := svc.Mutate(context.Background(), func(t *models.Tank) bool {
		if t.SensorID != "s1" {
			return false
		}
		t.Label = "touched"
		return true
	})
	if err != nil || n != 2 {
		t.Fatalf("Mutate = (%d, %v), want (2, nil)", n, err)
	}
	if pub.count() != 1 {
		t.Fatalf("want 1 publish, got %d", pub.count())
	}

	n, _ = svc.Mutate(context.Background(), func(*models.Tank) bool { return false })
	if n != 0 || pub.count() != 1 {
		t.Fatal("no change must not publish")
	}
}

func TestTankService_Snapshot(t *testing.T) {
	svc := newTankSvc(newMemTankRepo(models.Tank{ID: "a"}, models.Tank{ID: "b"}), nil)

	snap, err := svc.Snapshot(context.Background())
	if err != nil || len(snap) != 2 {
		t.Fatalf("Snapshot = (%v, %v)", snap, err)
	}
	if err := svc.Publish(context.Background()); err != nil {
		t.Fatalf("Publish without a publisher should be a no-op: %v", err)
	}
}
