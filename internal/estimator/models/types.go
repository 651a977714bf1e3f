package models

import (
	"errors"
	"math"

	"renovation-estimator/internal/estimator/geometry"
)

// ============================================================
// Enumerations
// ============================================================

type Point = geometry.Point

// Stage: этап работ, к которому привязаны примитивы и каталог.
type Stage string

const (
	StageCalibration  Stage = "calibration"
	StageDemolition   Stage = "demolition"
	StageInstallation Stage = "installation"
	StageMarkup       Stage = "markup"
	StageElectrical   Stage = "electrical"
	StagePlumbing     Stage = "plumbing"
	StageFinishing    Stage = "finishing"
	StageMaterials    Stage = "materials"
)

// Stages: фиксированный порядок этапов (порядок строк сметы).
var Stages = []Stage{
	StageCalibration,
	StageDemolition,
	StageInstallation,
	StageMarkup,
	StageElectrical,
	StagePlumbing,
	StageFinishing,
	StageMaterials,
}

func (s Stage) Valid() bool {
	for _, st := range Stages {
		if st == s {
			return true
		}
	}
	return false
}

// Семантическая метка примитива.
type Tag string

const (
	TagNone      Tag = ""
	TagRoom      Tag = "room"
	TagDoor      Tag = "door"
	TagWindow    Tag = "window"
	TagSpotlight Tag = "spotlight"
	TagBra       Tag = "bra"
	TagLED       Tag = "led"
	TagOutlet    Tag = "outlet"
	TagSwitch    Tag = "switch"
)

// FixtureTags считаются поштучно на этапе электрики.
var FixtureTags = []Tag{TagSpotlight, TagBra, TagOutlet, TagSwitch}

func (t Tag) Valid() bool {
	switch t {
	case TagNone, TagRoom, TagDoor, TagWindow, TagSpotlight, TagBra, TagLED, TagOutlet, TagSwitch:
		return true
	}
	return false
}

type PrimitiveType string

const (
	TypeLine      PrimitiveType = "line"
	TypeRectangle PrimitiveType = "rectangle"
	TypeCircle    PrimitiveType = "circle"
	TypePolygon   PrimitiveType = "polygon"
	TypeText      PrimitiveType = "text"
)

type OpeningType string

const (
	OpeningDoor    OpeningType = "door"
	OpeningWindow  OpeningType = "window"
	OpeningGeneric OpeningType = "opening"
)

func (o OpeningType) Valid() bool {
	return o == OpeningDoor || o == OpeningWindow || o == OpeningGeneric
}

// RoomCategory определяет, в какие фиксированные строки сметы попадает комната.
type RoomCategory string

const (
	RoomLiving RoomCategory = "living"
	RoomWet    RoomCategory = "wet"
	RoomOther  RoomCategory = "other"
)

// ============================================================
// Errors
// ============================================================

// ErrMissingScale: физические величины запрошены до калибровки.
var ErrMissingScale = errors.New("scale is not calibrated")

// ============================================================
// Scale
// ============================================================

// Scale: пара «известная длина в мм / та же длина в пикселях».
type Scale struct {
	KnownLengthMm float64 `json:"knownLengthMm"`
	PixelLength   float64 `json:"pixelLength"`
}

func (s Scale) Valid() bool {
	return s.PixelLength > 0 && s.KnownLengthMm > 0 &&
		!math.IsInf(s.KnownLengthMm, 0) && !math.IsNaN(s.KnownLengthMm)
}

func (s Scale) MmPerPixel() float64 {
	if s.PixelLength <= 0 {
		return 0
	}
	return s.KnownLengthMm / s.PixelLength
}

func (s Scale) MetersPerPixel() float64 {
	return s.MmPerPixel() / 1000
}

// Meters переводит длину из пикселей в метры.
func (s Scale) Meters(px float64) float64 {
	return px * s.MetersPerPixel()
}

// SquareMeters переводит площадь из пикселей² в м².
func (s Scale) SquareMeters(px2 float64) float64 {
	k := s.MetersPerPixel()
	return px2 * k * k
}

// Calibration: сохранённый масштаб проекта вместе с высотой потолка.
type Calibration struct {
	Scale           Scale   `json:"scale"`
	CeilingHeightMm float64 `json:"ceilingHeightMm"`
	UpdatedAt       string  `json:"updatedAt,omitempty"`
}

func (c Calibration) CeilingHeightM() float64 {
	return c.CeilingHeightMm / 1000
}

// ============================================================
// Project structure
// ============================================================

type Project struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

type Page struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Number    int    `json:"number"`
	Name      string `json:"name"`
}

type RoomType struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Category RoomCategory `json:"category"`
}

// Room связывает замкнутый полигон с типом помещения.
type Room struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"projectId"`
	PrimitiveID string  `json:"primitiveId"`
	RoomTypeID  string  `json:"roomTypeId"`
	Name        string  `json:"name"`
	Points      []Point `json:"points"`
}

// Opening: проём между одной или двумя комнатами.
type Opening struct {
	ID          string      `json:"id"`
	ProjectID   string      `json:"projectId"`
	PrimitiveID string      `json:"primitiveId"`
	RoomID1     string      `json:"roomId1"`
	RoomID2     string      `json:"roomId2,omitempty"`
	OpeningType OpeningType `json:"openingType"`
	HeightMm    float64     `json:"heightMm"`
	LengthPx    float64     `json:"lengthPx"`
}

// AreaM2 считает вертикальную площадь проёма.
func (o Opening) AreaM2(metersPerPixel float64) float64 {
	return o.LengthPx * metersPerPixel * o.HeightMm / 1000
}
