package models

// ============================================================
// Catalog
// ============================================================

// CatalogKind выбирает единственный способ определения базы расхода.
type CatalogKind string

const (
	KindStage     CatalogKind = "stage"     // по TriggerType
	KindRoomType  CatalogKind = "room_type" // по Basis floor_m2 | wall_m2
	KindOpening   CatalogKind = "opening"   // по Basis opening_m2 | per_opening
	KindBaseboard CatalogKind = "baseboard" // по подстроке в Unit
)

type CatalogScope string

const (
	ScopeDefault CatalogScope = "default"
	ScopeProject CatalogScope = "project"
)

type Basis string

const (
	BasisNone       Basis = ""
	BasisFloorM2    Basis = "floor_m2"
	BasisWallM2     Basis = "wall_m2"
	BasisOpeningM2  Basis = "opening_m2"
	BasisPerOpening Basis = "per_opening"
)

// CatalogEntry: материал или работа с нормой расхода и ценами.
type CatalogEntry struct {
	ID                 string       `json:"id"`
	Kind               CatalogKind  `json:"kind"`
	Scope              CatalogScope `json:"scope"`
	OwnerID            string       `json:"ownerId,omitempty"`
	ProjectID          string       `json:"projectId,omitempty"`
	Stage              Stage        `json:"stage"`
	Name               string       `json:"name"`
	Unit               string       `json:"unit,omitempty"`
	IsWork             bool         `json:"isWork"`
	ConsumptionPerUnit float64      `json:"consumptionPerUnit"`
	PurchasePrice      float64      `json:"purchasePrice"`
	SellPrice          float64      `json:"sellPrice"`
	TriggerType        Tag          `json:"triggerType,omitempty"`
	Basis              Basis        `json:"basis,omitempty"`
	RoomTypeID         string       `json:"roomTypeId,omitempty"`
	OpeningType        OpeningType  `json:"openingType,omitempty"`
}

// Validate проверяет, что у записи задан ровно тот селектор базы, который
// соответствует её виду.
func (e CatalogEntry) Validate() error {
	switch e.Kind {
	case KindStage:
		if e.TriggerType == TagNone || !e.TriggerType.Valid() {
			return errCatalog("stage entry requires triggerType")
		}
		if e.Basis != BasisNone {
			return errCatalog("stage entry must not set basis")
		}
	case KindRoomType:
		if e.Basis != BasisFloorM2 && e.Basis != BasisWallM2 {
			return errCatalog("room type entry requires basis floor_m2 or wall_m2")
		}
		if e.TriggerType != TagNone {
			return errCatalog("room type entry must not set triggerType")
		}
	case KindOpening:
		if e.Basis != BasisOpeningM2 && e.Basis != BasisPerOpening {
			return errCatalog("opening entry requires basis opening_m2 or per_opening")
		}
		if e.TriggerType != TagNone {
			return errCatalog("opening entry must not set triggerType")
		}
	case KindBaseboard:
		if e.TriggerType != TagNone || e.Basis != BasisNone {
			return errCatalog("baseboard entry is selected by unit only")
		}
	default:
		return errCatalog("unknown catalog kind " + string(e.Kind))
	}
	if !e.Stage.Valid() {
		return errCatalog("unknown stage " + string(e.Stage))
	}
	return nil
}

type catalogError string

func (e catalogError) Error() string { return "catalog: " + string(e) }

func errCatalog(msg string) error { return catalogError(msg) }
