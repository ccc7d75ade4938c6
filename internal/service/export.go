package service

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"water_tank/internal/models"
)

const logDateLayout = "2006-01-02 15:04:05"

var sensorLogHeader = []string{"Date", "MQTT Topic", "MQTT Payload"}

var exporters = map[string]func(io.Writer, []models.SensorLogEntry) error{
	FormatCSV:  writeSensorLogCSV,
	FormatXLSX: writeSensorLogXLSX,
	FormatPDF:  writeSensorLogPDF,
}

func writeSensorLogCSV(w io.Writer, entries []models.SensorLogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sensorLogHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Date.Local().Format(logDateLayout), e.MQTTTopic, e.MQTTPayload}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeSensorLogXLSX(w io.Writer, entries []models.SensorLogEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "sensor_log"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for i, h := range sensorLogHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, e := range entries {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), e.Date.Local().Format(logDateLayout))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), e.MQTTTopic)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), e.MQTTPayload)
	}
	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "B", 30)
	_ = f.SetColWidth(sheet, "C", "C", 60)

	return f.Write(w)
}

func writeSensorLogPDF(w io.Writer, entries []models.SensorLogEntry) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Water tank sensor log")
	pdf.Ln(10)

	widths := []float64{40, 60, 177}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range sensorLogHeader {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, e := range entries {
		pdf.CellFormat(widths[0], 5, e.Date.Local().Format(logDateLayout), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 5, truncate(e.MQTTTopic, 40), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 5, truncate(e.MQTTPayload, 120), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
