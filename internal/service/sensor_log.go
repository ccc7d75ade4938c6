package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"water_tank/internal/metrics"
	"water_tank/internal/models"
	"water_tank/internal/repository"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

type SensorLogService struct {
	repo repository.SensorLogRepo
	now  func() time.Time
}

func NewSensorLogService(repo repository.SensorLogRepo) *SensorLogService {
	return &SensorLogService{repo: repo, now: time.Now}
}

// Record stores a raw sensor message, keeping only the newest keep entries.
func (s *SensorLogService) Record(ctx context.Context, topic string, payload []byte, keep int) error {
	return s.repo.Append(ctx, models.SensorLogEntry{
		ID:          uuid.NewString(),
		Date:        s.now().Truncate(time.Second),
		MQTTTopic:   topic,
		MQTTPayload: string(payload),
	}, keep)
}

// List returns up to limit entries, newest first.
func (s *SensorLogService) List(ctx context.Context, limit int) ([]models.SensorLogEntry, error) {
	return s.repo.List(ctx, limit)
}

func (s *SensorLogService) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}

// Export writes the whole log, newest first, in the given format.
func (s *SensorLogService) Export(ctx context.Context, format string, w io.Writer) error {
	format = strings.ToLower(strings.TrimSpace(format))
	write, ok := exporters[format]
	if !ok {
		return ErrUnsupportedFormat
	}

	entries, err := s.repo.List(ctx, 0)
	if err != nil {
		return err
	}
	err = write(w, entries)
	metrics.ObserveExport(format, err == nil)
	return err
}

// ExportContentType returns the MIME type and file extension for format.
func ExportContentType(format string) (contentType, ext string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return "text/csv; charset=utf-8", FormatCSV, true
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX, true
	case FormatPDF:
		return "application/pdf", FormatPDF, true
	}
	return "", "", false
}
