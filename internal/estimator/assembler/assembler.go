// Package assembler собирает итоговую смету и таблицу замеров.
package assembler

import (
	"sort"

	"renovation-estimator/internal/estimator/aggregate"
	"renovation-estimator/internal/estimator/models"
	"renovation-estimator/internal/estimator/netting"
	"renovation-estimator/internal/estimator/rules"

	"github.com/shopspring/decimal"
)

// Prices: расценки фиксированных строк сметы за единицу (руб.).
type Prices struct {
	Demolition   float64 `json:"demolition"`
	Installation float64 `json:"installation"`
	Screed       float64 `json:"screed"`
	Plaster      float64 `json:"plaster"`
	Putty        float64 `json:"putty"`
	Tiling       float64 `json:"tiling"`
	Baseboard    float64 `json:"baseboard"`
}

// Базовые расценки, переопределяются через конфигурацию.
const (
	DefaultPriceDemolition   = 350.0
	DefaultPriceInstallation = 1200.0
	DefaultPriceScreed       = 650.0
	DefaultPricePlaster      = 550.0
	DefaultPricePutty        = 400.0
	DefaultPriceTiling       = 1800.0
	DefaultPriceBaseboard    = 250.0
)

func DefaultPrices() Prices {
	return Prices{
		Demolition:   DefaultPriceDemolition,
		Installation: DefaultPriceInstallation,
		Screed:       DefaultPriceScreed,
		Plaster:      DefaultPricePlaster,
		Putty:        DefaultPricePutty,
		Tiling:       DefaultPriceTiling,
		Baseboard:    DefaultPriceBaseboard,
	}
}

// Коды фиксированных строк.
const (
	RowDemolition   = "demolition"
	RowInstallation = "installation"
	RowScreed       = "screed"
	RowPlaster      = "plaster"
	RowPutty        = "putty"
	RowTiling       = "tiling"
	RowBaseboard    = "baseboard"
)

type Row struct {
	Code      string       `json:"code,omitempty"`
	EntryID   string       `json:"entryId,omitempty"`
	Stage     models.Stage `json:"stage,omitempty"`
	Name      string       `json:"name"`
	Unit      string       `json:"unit"`
	IsWork    bool         `json:"isWork"`
	RoomID    string       `json:"roomId,omitempty"`
	OpeningID string       `json:"openingId,omitempty"`
	Quantity  float64      `json:"quantity"`
	UnitPrice float64      `json:"unitPrice"`
	Total     float64      `json:"total"`
	Resolved  bool         `json:"resolved"`
}

type Estimate struct {
	Rows           []Row   `json:"rows"`
	GrandTotal     float64 `json:"grandTotal"`
	CostTotal      float64 `json:"costTotal"`
	ProfitTotal    float64 `json:"profitTotal"`
	ScaleAvailable bool    `json:"scaleAvailable"`
}

// Input: всё, что нужно для сборки. Stages содержит только этапы
// с известным масштабом.
type Input struct {
	Scale          *models.Scale
	CeilingHeightM float64
	Stages         map[models.Stage]aggregate.PhysicalTotals
	Netting        netting.Result
	RoomTypes      map[string]models.RoomType
	Lines          []rules.Line
	Primitives     []models.Primitive
}

func (in Input) scaleAvailable() bool {
	return in.Scale != nil && in.Scale.Valid()
}

// ============================================================
// Estimate
// ============================================================

// Assemble строит плоский список строк: сначала каталожные строки по этапам
// в фиксированном порядке, затем фиксированные строки. Итог каждой строки
// округляется до копеек до суммирования.
func Assemble(in Input, prices Prices) Estimate {
	est := Estimate{ScaleAvailable: in.scaleAvailable()}

	for _, l := range orderLines(in.Lines) {
		est.Rows = append(est.Rows, Row{
			EntryID:   l.EntryID,
			Stage:     l.Stage,
			Name:      l.Name,
			Unit:      l.Unit,
			IsWork:    l.IsWork,
			RoomID:    l.RoomID,
			OpeningID: l.OpeningID,
			Quantity:  l.RequiredQty,
			UnitPrice: l.SellPrice,
			Total:     round2(l.RequiredQty, l.SellPrice),
			Resolved:  l.Resolved,
		})
	}

	est.Rows = append(est.Rows, fixedRows(in, prices)...)

	grand := decimal.Zero
	for _, r := range est.Rows {
		grand = grand.Add(decimal.NewFromFloat(r.Total))
	}
	est.GrandTotal = grand.InexactFloat64()

	totals := rules.Sum(in.Lines)
	est.CostTotal = decimal.NewFromFloat(totals.Cost).Round(2).InexactFloat64()
	est.ProfitTotal = decimal.NewFromFloat(totals.Profit).Round(2).InexactFloat64()

	return est
}

func fixedRows(in Input, p Prices) []Row {
	h := in.CeilingHeightM
	ok := in.scaleAvailable()

	stageLength := func(s models.Stage) float64 {
		if t, found := in.Stages[s]; found {
			return t.TotalLengthM
		}
		return 0
	}

	var floor, wall, living, wet float64
	for _, r := range in.Netting.Rooms {
		floor += r.FloorAreaM2
		wall += r.NetWallAreaM2
		switch in.RoomTypes[r.RoomTypeID].Category {
		case models.RoomLiving:
			living += r.NetWallAreaM2
		case models.RoomWet:
			wet += r.NetWallAreaM2 + r.FloorAreaM2
		}
	}

	row := func(code, name, unit string, qty, price float64) Row {
		return Row{
			Code:      code,
			Name:      name,
			Unit:      unit,
			IsWork:    true,
			Quantity:  qty,
			UnitPrice: price,
			Total:     round2(qty, price),
			Resolved:  ok,
		}
	}

	return []Row{
		row(RowDemolition, "Демонтаж перегородок", "м²", stageLength(models.StageDemolition)*h, p.Demolition),
		row(RowInstallation, "Монтаж перегородок", "м²", stageLength(models.StageInstallation)*h, p.Installation),
		row(RowScreed, "Стяжка пола", "м²", floor, p.Screed),
		row(RowPlaster, "Штукатурка стен", "м²", wall, p.Plaster),
		row(RowPutty, "Шпаклёвка стен (жилые)", "м²", living, p.Putty),
		row(RowTiling, "Укладка плитки (санузлы)", "м²", wet, p.Tiling),
		row(RowBaseboard, "Монтаж плинтуса", "м", stageLength(models.StageMaterials), p.Baseboard),
	}
}

// orderLines сортирует по этапам; внутри этапа порядок сохраняется.
func orderLines(lines []rules.Line) []rules.Line {
	rank := make(map[models.Stage]int, len(models.Stages))
	for i, s := range models.Stages {
		rank[s] = i
	}
	out := append([]rules.Line(nil), lines...)
	sort.SliceStable(out, func(i, j int) bool {
		return rankOf(rank, out[i].Stage) < rankOf(rank, out[j].Stage)
	})
	return out
}

func rankOf(rank map[models.Stage]int, s models.Stage) int {
	if r, ok := rank[s]; ok {
		return r
	}
	return len(rank)
}

func round2(qty, price float64) float64 {
	return decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(price)).Round(2).InexactFloat64()
}
