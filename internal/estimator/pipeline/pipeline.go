// Package pipeline прогоняет снимок проекта через все этапы расчёта:
// агрегация, вычет проёмов, нормы расхода, смета.
package pipeline

import (
	"sort"

	"renovation-estimator/internal/estimator/aggregate"
	"renovation-estimator/internal/estimator/assembler"
	"renovation-estimator/internal/estimator/models"
	"renovation-estimator/internal/estimator/netting"
	"renovation-estimator/internal/estimator/rules"
)

// Snapshot: неизменяемый срез данных проекта. Run его не модифицирует.
type Snapshot struct {
	Project     models.Project        `json:"project"`
	Calibration *models.Calibration   `json:"calibration,omitempty"`
	Primitives  []models.Primitive    `json:"primitives"`
	Rooms       []models.Room         `json:"rooms"`
	Openings    []models.Opening      `json:"openings"`
	RoomTypes   []models.RoomType     `json:"roomTypes"`
	Catalog     []models.CatalogEntry `json:"catalog"`
}

// Scale возвращает масштаб, если он задан и корректен.
func (s Snapshot) Scale() *models.Scale {
	if s.Calibration == nil || !s.Calibration.Scale.Valid() {
		return nil
	}
	sc := s.Calibration.Scale
	return &sc
}

func (s Snapshot) CeilingHeightM() float64 {
	if s.Calibration == nil {
		return 0
	}
	return s.Calibration.CeilingHeightM()
}

type Config struct {
	Factors rules.Factors
	Netting netting.Options
	Prices  assembler.Prices
}

func DefaultConfig() Config {
	return Config{
		Factors: rules.DefaultFactors(),
		Netting: netting.DefaultOptions(),
		Prices:  assembler.DefaultPrices(),
	}
}

// Report: результат расчёта. При ScaleAvailable=false Physical и Netting пустые,
// а смета содержит нули там, где нужна геометрия.
type Report struct {
	ProjectID      string                                    `json:"projectId"`
	ScaleAvailable bool                                      `json:"scaleAvailable"`
	MetersPerPixel float64                                   `json:"metersPerPixel,omitempty"`
	CeilingHeightM float64                                   `json:"ceilingHeightM"`
	Stages         map[models.Stage]aggregate.StageTotals    `json:"stages"`
	Physical       map[models.Stage]aggregate.PhysicalTotals `json:"physical,omitempty"`
	Netting        netting.Result                            `json:"netting"`
	Lines          []rules.Line                              `json:"lines"`
	Estimate       assembler.Estimate                        `json:"estimate"`
	Measurements   assembler.Measurements                    `json:"measurements"`
}

// Run синхронно считает отчёт. Обход отсортирован, этапы идут в фиксированном
// порядке, поэтому повторный запуск на том же снимке даёт тот же результат.
func Run(snap Snapshot, cfg Config) Report {
	scale := snap.Scale()
	h := snap.CeilingHeightM()

	rep := Report{
		ProjectID:      snap.Project.ID,
		ScaleAvailable: scale != nil,
		CeilingHeightM: h,
		Stages:         aggregate.Project(snap.Primitives),
	}

	if scale != nil {
		rep.MetersPerPixel = scale.MetersPerPixel()
		rep.Physical = make(map[models.Stage]aggregate.PhysicalTotals, len(rep.Stages))
		for _, st := range models.Stages {
			if phys, ok := rep.Stages[st].Physical(scale); ok {
				rep.Physical[st] = phys
			}
		}
		rep.Netting = netting.Compute(snap.Rooms, snap.Openings, rep.MetersPerPixel, h, cfg.Netting)
	}

	engine := rules.New(cfg.Factors)
	rep.Lines = engine.EvaluateCatalog(sortedCatalog(snap.Catalog), rules.Quantities{
		Stages:         rep.Physical,
		Rooms:          rep.Netting.Rooms,
		Openings:       rep.Netting.Openings,
		CeilingHeightM: h,
	})

	in := assembler.Input{
		Scale:          scale,
		CeilingHeightM: h,
		Stages:         rep.Physical,
		Netting:        rep.Netting,
		RoomTypes:      roomTypeIndex(snap.RoomTypes),
		Lines:          rep.Lines,
		Primitives:     snap.Primitives,
	}
	rep.Estimate = assembler.Assemble(in, cfg.Prices)
	rep.Measurements = assembler.Measure(in)

	return rep
}

func roomTypeIndex(types []models.RoomType) map[string]models.RoomType {
	idx := make(map[string]models.RoomType, len(types))
	for _, rt := range types {
		idx[rt.ID] = rt
	}
	return idx
}

// sortedCatalog упорядочивает записи по этапу, виду, названию и ID.
func sortedCatalog(entries []models.CatalogEntry) []models.CatalogEntry {
	rank := make(map[models.Stage]int, len(models.Stages))
	for i, s := range models.Stages {
		rank[s] = i
	}
	stageRank := func(s models.Stage) int {
		if r, ok := rank[s]; ok {
			return r
		}
		return len(rank)
	}

	out := append([]models.CatalogEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := stageRank(a.Stage), stageRank(b.Stage); ra != rb {
			return ra < rb
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return out
}
