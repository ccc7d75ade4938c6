package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func newSensorLogFixture(t *testing.T) (*SensorLogService, *memSensorLogRepo) {
	t.Helper()
	repo := &memSensorLogRepo{}
	svc := NewSensorLogService(repo)
	tick := testNow
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	ctx := context.Background()
	for _, p := range []string{`{"sensor_id":"s1","measurement":10}`, `{"sensor_id":"s1","measurement":11}`} {
		if err := svc.Record(ctx, "sensors", []byte(p), 0); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	return svc, repo
}

func TestSensorLogService_RecordAndList(t *testing.T) {
	svc, repo := newSensorLogFixture(t)

	got, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || !strings.Contains(got[0].MQTTPayload, "11") {
		t.Fatalf("want newest entry first, got %+v", got)
	}
	if got[0].ID == "" || !got[0].Date.Equal(testNow.Add(2*time.Second)) {
		t.Fatalf("id/date not filled: %+v", got[0])
	}

	if err := svc.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(repo.entries) != 0 {
		t.Fatal("log not cleared")
	}
}

func TestSensorLogService_ExportCSV(t *testing.T) {
	svc, _ := newSensorLogFixture(t)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), "CSV", &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("want header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "Date" || records[1][1] != "sensors" || records[1][2] != `{"sensor_id":"s1","measurement":11}` {
		t.Fatalf("unexpected csv: %v", records)
	}
	if records[1][0] != testNow.Add(2*time.Second).Format("2006-01-02 15:04:05") {
		t.Fatalf("unexpected date column %q", records[1][0])
	}
}

func TestSensorLogService_ExportXLSX(t *testing.T) {
	svc, _ := newSensorLogFixture(t)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), FormatXLSX, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	wb, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows("sensor_log")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 || rows[0][2] != "MQTT Payload" || rows[2][1] != "sensors" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestSensorLogService_ExportPDF(t *testing.T) {
	svc, _ := newSensorLogFixture(t)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), FormatPDF, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output is not a pdf: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestSensorLogService_ExportUnsupported(t *testing.T) {
	svc, _ := newSensorLogFixture(t)
	if err := svc.Export(context.Background(), "docx", &bytes.Buffer{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestExportContentType(t *testing.T) {
	if ct, ext, ok := ExportContentType("pdf"); !ok || ct != "application/pdf" || ext != "pdf" {
		t.Fatalf("pdf: %q %q %v", ct, ext, ok)
	}
	if _, _, ok := ExportContentType("txt"); ok {
		t.Fatal("txt must not be supported")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 10); got != "abcdef" {
		t.Fatalf("short string changed: %q", got)
	}
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
}
