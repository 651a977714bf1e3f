// Package parser импортирует размеченный SVG-план в примитивы проекта.
package parser

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"strings"

	"renovation-estimator/internal/estimator/geometry"
	"renovation-estimator/internal/estimator/models"

	"github.com/google/uuid"
)

// ============================================================
// XML Structures
// ============================================================

type SVG struct {
	XMLName xml.Name `xml:"svg"`
	Group
}

// Group описывает содержимое <svg> или вложенного <g>.
type Group struct {
	ID      string   `xml:"id,attr"`
	Rects   []Rect   `xml:"rect"`
	Paths   []Path   `xml:"path"`
	Lines   []Line   `xml:"line"`
	Circles []Circle `xml:"circle"`
	Groups  []Group  `xml:"g"`
}

type Rect struct {
	ID     string  `xml:"id,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

type Path struct {
	ID string `xml:"id,attr"`
	D  string `xml:"d,attr"`
}

type Line struct {
	ID string  `xml:"id,attr"`
	X1 float64 `xml:"x1,attr"`
	Y1 float64 `xml:"y1,attr"`
	X2 float64 `xml:"x2,attr"`
	Y2 float64 `xml:"y2,attr"`
}

type Circle struct {
	ID string  `xml:"id,attr"`
	CX float64 `xml:"cx,attr"`
	CY float64 `xml:"cy,attr"`
	R  float64 `xml:"r,attr"`
}

// ============================================================
// Classification
// ============================================================

// Kind: роль элемента плана, определяется по префиксу id.
type Kind string

const (
	KindWall      Kind = "wall"
	KindDoor      Kind = "door"
	KindWindow    Kind = "window"
	KindRoom      Kind = "room"
	KindBalcony   Kind = "balcony"
	KindLED       Kind = "led"
	KindSpotlight Kind = "spotlight"
	KindBra       Kind = "bra"
	KindOutlet    Kind = "outlet"
	KindSwitch    Kind = "switch"
)

func classifyElementByID(id string) Kind {
	switch {
	case strings.HasPrefix(id, "Wall_"), strings.HasPrefix(id, "Hui_Wall_"):
		return KindWall
	case strings.HasPrefix(id, "Door_"):
		return KindDoor
	case strings.HasPrefix(id, "Window_"):
		return KindWindow
	case strings.HasPrefix(id, "Room_"),
		strings.HasSuffix(id, "_room"), // Hall_room, Toilet_room
		strings.HasSuffix(id, "_Room"):
		return KindRoom
	case strings.HasPrefix(id, "Balcony"):
		return KindBalcony
	case strings.HasPrefix(id, "Led_"), strings.HasPrefix(id, "LED_"):
		return KindLED
	case strings.HasPrefix(id, "Spotlight_"):
		return KindSpotlight
	case strings.HasPrefix(id, "Bra_"):
		return KindBra
	case strings.HasPrefix(id, "Outlet_"):
		return KindOutlet
	case strings.HasPrefix(id, "Switch_"):
		return KindSwitch
	}
	return ""
}

// placement выбирает этап и тег, с которыми элемент попадает в проект.
func (o Options) placement(k Kind) (models.Stage, models.Tag) {
	switch k {
	case KindWall:
		return o.WallStage, models.TagNone
	case KindDoor:
		return models.StageMarkup, models.TagDoor
	case KindWindow:
		return models.StageMarkup, models.TagWindow
	case KindRoom, KindBalcony:
		return models.StageMarkup, models.TagRoom
	case KindLED:
		return models.StageElectrical, models.TagLED
	case KindSpotlight:
		return models.StageElectrical, models.TagSpotlight
	case KindBra:
		return models.StageElectrical, models.TagBra
	case KindOutlet:
		return models.StageElectrical, models.TagOutlet
	case KindSwitch:
		return models.StageElectrical, models.TagSwitch
	}
	return "", models.TagNone
}

// ============================================================
// Import
// ============================================================

type Options struct {
	ProjectID string
	PageID    string
	// Этап для стен, по умолчанию разметка.
	WallStage models.Stage
}

type Result struct {
	Primitives []models.Primitive `json:"primitives"`
	Skipped    []string           `json:"skipped,omitempty"`
}

// Import читает SVG и превращает распознанные элементы в примитивы.
// Элементы без известного префикса id пропускаются молча, битые: попадают в Skipped.
func Import(r io.Reader, opts Options) (Result, error) {
	if opts.WallStage == "" {
		opts.WallStage = models.StageMarkup
	}
	if !opts.WallStage.Valid() {
		return Result{}, fmt.Errorf("unknown wall stage %q", opts.WallStage)
	}

	var svg SVG
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&svg); err != nil {
		return Result{}, fmt.Errorf("decode svg: %w", err)
	}

	var res Result
	opts.walk(svg.Group, &res)

	log.Printf("[IMPORT] project=%s page=%s primitives=%d skipped=%d",
		opts.ProjectID, opts.PageID, len(res.Primitives), len(res.Skipped))
	return res, nil
}

func (o Options) walk(g Group, res *Result) {
	for _, rect := range g.Rects {
		o.add(res, rect.ID, func(k Kind) (models.Shape, error) {
			return rectShape(k, rect)
		})
	}
	for _, path := range g.Paths {
		o.add(res, path.ID, func(k Kind) (models.Shape, error) {
			return pathShape(k, path)
		})
	}
	for _, line := range g.Lines {
		o.add(res, line.ID, func(Kind) (models.Shape, error) {
			return models.LineShape{Points: []models.Point{{X: line.X1, Y: line.Y1}, {X: line.X2, Y: line.Y2}}}, nil
		})
	}
	for _, c := range g.Circles {
		o.add(res, c.ID, func(k Kind) (models.Shape, error) {
			if !isFixture(k) {
				return nil, fmt.Errorf("circle is only supported for fixtures")
			}
			return models.CircleShape{CX: c.CX, CY: c.CY, Radius: c.R}, nil
		})
	}
	for _, child := range g.Groups {
		o.walk(child, res)
	}
}

func (o Options) add(res *Result, svgID string, build func(Kind) (models.Shape, error)) {
	kind := classifyElementByID(svgID)
	if kind == "" {
		return
	}

	shape, err := build(kind)
	if err != nil {
		log.Printf("[IMPORT] skip %s: %v", svgID, err)
		res.Skipped = append(res.Skipped, svgID)
		return
	}

	stage, tag := o.placement(kind)
	style, _ := json.Marshal(map[string]string{"svgId": svgID})

	res.Primitives = append(res.Primitives, models.Primitive{
		ID:        uuid.NewString(),
		ProjectID: o.ProjectID,
		PageID:    o.PageID,
		Stage:     stage,
		Tag:       tag,
		Shape:     shape,
		Style:     style,
	})
}

func rectShape(k Kind, r Rect) (models.Shape, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("rect has no area")
	}
	switch {
	case k == KindRoom || k == KindBalcony:
		return models.PolygonShape{Points: models.RectShape{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}.Outline()}, nil
	case isFixture(k):
		return models.CircleShape{CX: r.X + r.Width/2, CY: r.Y + r.Height/2, Radius: min(r.Width, r.Height) / 2}, nil
	}
	return models.RectShape{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}, nil
}

func pathShape(k Kind, p Path) (models.Shape, error) {
	points, closed, err := ParsePath(p.D)
	if err != nil {
		return nil, err
	}

	switch {
	case k == KindRoom || k == KindBalcony:
		outline := geometry.TrimClosingPoint(points)
		if len(outline) < 3 {
			return nil, fmt.Errorf("room outline needs at least 3 points")
		}
		return models.PolygonShape{Points: outline}, nil
	case isFixture(k):
		c, _ := geometry.Centroid(points)
		return models.CircleShape{CX: c.X, CY: c.Y}, nil
	}

	if len(points) < 2 {
		return nil, fmt.Errorf("path needs at least 2 points")
	}
	return models.LineShape{Points: points, Closed: closed}, nil
}

func isFixture(k Kind) bool {
	switch k {
	case KindSpotlight, KindBra, KindOutlet, KindSwitch:
		return true
	}
	return false
}
