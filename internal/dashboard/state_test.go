package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"water_tank/internal/models"
)

func TestState_LoadSettingsOnce(t *testing.T) {
	st := NewState()
	if !st.LoadSettings(models.Settings{MaxSensorNoSignalTime: 10}) {
		t.Fatalf("first LoadSettings should report loaded")
	}
	if st.LoadSettings(models.Settings{MaxSensorNoSignalTime: 99}) {
		t.Fatalf("second LoadSettings should be ignored")
	}
	_, s := st.View()
	if s == nil || s.MaxSensorNoSignalTime != 10 {
		t.Fatalf("settings = %+v, want max 10", s)
	}
	select {
	case <-st.SettingsReady():
	default:
		t.Fatalf("ready gate should be open")
	}
}

func TestState_WaitSettingsHonoursContext(t *testing.T) {
	st := NewState()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := st.WaitSettings(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestState_WaitSettingsUnblocksOnLoad(t *testing.T) {
	st := NewState()
	done := make(chan models.Settings, 1)
	go func() {
		s, err := st.WaitSettings(context.Background())
		if err == nil {
			done <- s
		}
	}()
	st.LoadSettings(models.Settings{MaxSensorNoSignalTime: 7})
	select {
	case s := <-done:
		if s.MaxSensorNoSignalTime != 7 {
			t.Fatalf("got %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatalf("WaitSettings did not return")
	}
}

func TestState_ViewBeforeLoad(t *testing.T) {
	snap, s := NewState().View()
	if snap != nil || s != nil {
		t.Fatalf("expected nil snapshot and settings, got %v %v", snap, s)
	}
}

func TestState_ReplaceSnapshotIsWholesale(t *testing.T) {
	st := NewState()
	st.ReplaceSnapshot(models.Snapshot{"a": {ID: "a"}, "b": {ID: "b"}})
	st.ReplaceSnapshot(models.Snapshot{"c": {ID: "c"}})
	snap, _ := st.View()
	if len(snap) != 1 {
		t.Fatalf("snapshot = %v, want only c", snap)
	}
	if _, ok := snap["c"]; !ok {
		t.Fatalf("snapshot missing c")
	}
}
