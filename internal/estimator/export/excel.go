// Package export выгружает смету и замеры в xlsx и pdf.
package export

import (
	"bytes"
	"fmt"
	"sort"

	"renovation-estimator/internal/estimator/models"
	"renovation-estimator/internal/estimator/pipeline"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetEstimate     = "Смета"
	SheetMeasurements = "Замеры"
)

// EstimateExcel строит книгу из двух листов: смета и замеры.
// Значения округляются до сотых только здесь.
func EstimateExcel(rep pipeline.Report, title string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetEstimate); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	if _, err := f.NewSheet(SheetMeasurements); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeEstimateSheet(f, styles, rep, title); err != nil {
		return nil, err
	}
	if err := writeMeasurementsSheet(f, styles, rep); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

type sheetStyles struct {
	title  int
	header int
	cell   int
	total  int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return s, fmt.Errorf("create title style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	}); err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}
	if s.cell, err = f.NewStyle(&excelize.Style{Border: thinBorders()}); err != nil {
		return s, fmt.Errorf("create cell style: %w", err)
	}
	if s.total, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("create total style: %w", err)
	}
	return s, nil
}

func thinBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "#999999", Style: 1},
		{Type: "right", Color: "#999999", Style: 1},
		{Type: "top", Color: "#999999", Style: 1},
		{Type: "bottom", Color: "#999999", Style: 1},
	}
}

// ============================================================
// Смета
// ============================================================

func writeEstimateSheet(f *excelize.File, st sheetStyles, rep pipeline.Report, title string) error {
	sheet := SheetEstimate
	widths := map[string]float64{"A": 6, "B": 16, "C": 44, "D": 10, "E": 12, "F": 14, "G": 16}
	for col, w := range widths {
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	f.SetCellValue(sheet, "A1", sanitizeExcelCell(title))
	f.SetCellStyle(sheet, "A1", "A1", st.title)
	if !rep.ScaleAvailable {
		f.SetCellValue(sheet, "A2", "Масштаб не задан: количества по геометрии равны нулю")
	}

	headers := headerRow("№", "Этап", "Наименование", "Ед.", "Кол-во", "Цена", "Сумма")
	if err := setRow(f, sheet, 4, headers); err != nil {
		return err
	}
	f.SetCellStyle(sheet, "A4", "G4", st.header)

	row := 5
	for i, r := range rep.Estimate.Rows {
		values := []any{i + 1, stageTitle(r.Stage), sanitizeExcelCell(r.Name), r.Unit, round2(r.Quantity), round2(r.UnitPrice), r.Total}
		if err := setRow(f, sheet, row, values); err != nil {
			return err
		}
		f.SetCellStyle(sheet, cell("A", row), cell("G", row), st.cell)
		row++
	}

	row++
	totals := []struct {
		label string
		value float64
	}{
		{"Итого:", rep.Estimate.GrandTotal},
		{"Себестоимость материалов и работ:", rep.Estimate.CostTotal},
		{"Прибыль:", rep.Estimate.ProfitTotal},
	}
	for _, t := range totals {
		f.SetCellValue(sheet, cell("C", row), t.label)
		f.SetCellValue(sheet, cell("G", row), t.value)
		f.SetCellStyle(sheet, cell("C", row), cell("G", row), st.total)
		row++
	}
	return nil
}

// ============================================================
// Замеры
// ============================================================

func writeMeasurementsSheet(f *excelize.File, st sheetStyles, rep pipeline.Report) error {
	sheet := SheetMeasurements
	m := rep.Measurements
	for col, w := range map[string]float64{"A": 28, "B": 16, "C": 16, "D": 16, "E": 16} {
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	row := 1
	section := func(title string, headers []string) error {
		f.SetCellValue(sheet, cell("A", row), title)
		f.SetCellStyle(sheet, cell("A", row), cell("A", row), st.title)
		row++
		if err := setRow(f, sheet, row, headerRow(headers...)); err != nil {
			return err
		}
		last := string(rune('A' + len(headers) - 1))
		f.SetCellStyle(sheet, cell("A", row), cell(last, row), st.header)
		row++
		return nil
	}
	data := func(values ...any) error {
		if err := setRow(f, sheet, row, values); err != nil {
			return err
		}
		last := string(rune('A' + len(values) - 1))
		f.SetCellStyle(sheet, cell("A", row), cell(last, row), st.cell)
		row++
		return nil
	}

	if err := section("Помещения", []string{"Помещение", "Периметр, м", "Пол, м²", "Стены брутто, м²", "Стены нетто, м²"}); err != nil {
		return err
	}
	for _, r := range m.Rooms {
		name := r.Name
		if r.RoomType != "" {
			name = fmt.Sprintf("%s (%s)", r.Name, r.RoomType)
		}
		if err := data(sanitizeExcelCell(name), round2(r.PerimeterM), round2(r.FloorAreaM2), round2(r.GrossWallAreaM2), round2(r.NetWallAreaM2)); err != nil {
			return err
		}
	}
	row++

	if err := section("Проёмы", []string{"Проём", "Тип", "Длина, м", "Высота, м", "Площадь, м²"}); err != nil {
		return err
	}
	for _, o := range m.Openings {
		if err := data(o.OpeningID, string(o.OpeningType), round2(o.LengthM), round2(o.HeightM), round2(o.AreaM2)); err != nil {
			return err
		}
	}
	row++

	if err := section("Стены (демонтаж и монтаж)", []string{"Примитив", "Этап", "Длина, м", "Площадь, м²"}); err != nil {
		return err
	}
	for _, w := range m.WallSegments {
		if err := data(w.PrimitiveID, stageTitle(w.Stage), round2(w.LengthM), round2(w.AreaM2)); err != nil {
			return err
		}
	}
	row++

	if err := section("Электрика", []string{"Позиция", "Количество"}); err != nil {
		return err
	}
	tags := make([]string, 0, len(m.Electrical.Counts))
	for tag := range m.Electrical.Counts {
		tags = append(tags, string(tag))
	}
	sort.Strings(tags)
	for _, tag := range tags {
		if err := data(tag, m.Electrical.Counts[models.Tag(tag)]); err != nil {
			return err
		}
	}
	if err := data("LED, м", round2(m.Electrical.LedLengthM)); err != nil {
		return err
	}
	row++

	if err := section("Плинтус", []string{"Длина, м", "Углы"}); err != nil {
		return err
	}
	return data(round2(m.Baseboard.LengthM), m.Baseboard.CornerCount)
}

// ============================================================
// Helpers
// ============================================================

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	if err := f.SetSheetRow(sheet, cell("A", row), &values); err != nil {
		return fmt.Errorf("set row %d: %w", row, err)
	}
	return nil
}

func headerRow(headers ...string) []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

var stageTitles = map[models.Stage]string{
	models.StageCalibration:  "Калибровка",
	models.StageDemolition:   "Демонтаж",
	models.StageInstallation: "Монтаж",
	models.StageMarkup:       "Разметка",
	models.StageElectrical:   "Электрика",
	models.StagePlumbing:     "Сантехника",
	models.StageFinishing:    "Отделка",
	models.StageMaterials:    "Материалы",
}

func stageTitle(s models.Stage) string {
	if t, ok := stageTitles[s]; ok {
		return t
	}
	return "Общие работы"
}

// sanitizeExcelCell экранирует ведущие символы, которые Excel считает формулой.
func sanitizeExcelCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
