package export

import (
	"bytes"
	"fmt"
	"strings"

	"renovation-estimator/internal/estimator/pipeline"

	"github.com/go-pdf/fpdf"
)

// Разметка страницы (A4 альбомная, мм).
const (
	pageWidth    = 297.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	rowHeight    = 6.0
)

// Колонки таблицы сметы.
var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"N", 10, "R"},
	{"Этап", 32, "L"},
	{"Наименование", 115, "L"},
	{"Ед.", 18, "C"},
	{"Кол-во", 25, "R"},
	{"Цена", 25, "R"},
	{"Сумма", 42, "R"},
}

// PDFOptions: FontPath указывает на TTF с кириллицей. Без него текст
// выводится встроенной Helvetica в транслите.
type PDFOptions struct {
	FontPath string
}

// EstimatePDF печатает смету одной таблицей с итогами.
func EstimatePDF(rep pipeline.Report, title string, opts PDFOptions) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)

	family, text := "Helvetica", translit
	if opts.FontPath != "" {
		pdf.AddUTF8Font("estimate", "", opts.FontPath)
		pdf.AddUTF8Font("estimate", "B", opts.FontPath)
		family, text = "estimate", func(s string) string { return s }
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	header := func() {
		pdf.SetFont(family, "B", 9)
		pdf.SetFillColor(51, 51, 51)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, rowHeight+1, text(c.title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont(family, "", 9)
	}

	pdf.AddPage()
	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, text(title), "", 1, "L", false, 0, "")
	if !rep.ScaleAvailable {
		pdf.SetFont(family, "", 10)
		pdf.CellFormat(0, 6, text("Масштаб не задан: количества по геометрии равны нулю"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	header()

	_, pageHeight := pdf.GetPageSize()
	for i, r := range rep.Estimate.Rows {
		if pdf.GetY()+rowHeight > pageHeight-marginBottom {
			pdf.AddPage()
			header()
		}
		values := []string{
			fmt.Sprintf("%d", i+1),
			stageTitle(r.Stage),
			r.Name,
			r.Unit,
			fmt.Sprintf("%.2f", round2(r.Quantity)),
			fmt.Sprintf("%.2f", round2(r.UnitPrice)),
			fmt.Sprintf("%.2f", r.Total),
		}
		for j, c := range pdfColumns {
			pdf.CellFormat(c.width, rowHeight, text(values[j]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont(family, "B", 11)
	labelWidth := pageWidth - marginLeft - marginRight - pdfColumns[len(pdfColumns)-1].width
	for _, t := range []struct {
		label string
		value float64
	}{
		{"Итого:", rep.Estimate.GrandTotal},
		{"Себестоимость:", rep.Estimate.CostTotal},
		{"Прибыль:", rep.Estimate.ProfitTotal},
	} {
		pdf.CellFormat(labelWidth, rowHeight, text(t.label), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, rowHeight, fmt.Sprintf("%.2f", t.value), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e", 'ж': "zh",
	'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n", 'о': "o",
	'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts",
	'ч': "ch", 'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu",
	'я': "ya", '²': "2", '№': "N",
}

// встроенные шрифты fpdf не содержат кириллицы
func translit(s string) string {
	var b strings.Builder
	for _, r := range s {
		lower := []rune(strings.ToLower(string(r)))[0]
		t, ok := cyrillic[lower]
		switch {
		case !ok:
			if r < 128 {
				b.WriteRune(r)
			} else {
				b.WriteByte('?')
			}
		case lower != r && t != "":
			b.WriteString(strings.ToUpper(t[:1]) + t[1:])
		default:
			b.WriteString(t)
		}
	}
	return b.String()
}
