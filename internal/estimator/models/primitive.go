package models

import (
	"encoding/json"
	"fmt"

	"renovation-estimator/internal/estimator/geometry"
)

// ============================================================
// Shapes
// ============================================================

// Shape: геометрия примитива, по одному варианту на тип.
type Shape interface {
	Type() PrimitiveType
	// LengthPx: длина, которую примитив вносит в погонные метры этапа.
	LengthPx() float64
	// AreaPx2: площадь, которую примитив вносит в квадратные метры этапа.
	AreaPx2() float64
}

// Отрезок или полилиния.
type LineShape struct {
	Points []Point
	Closed bool
}

func (LineShape) Type() PrimitiveType { return TypeLine }
func (s LineShape) LengthPx() float64 {
	if s.Closed {
		return geometry.ClosedPolylineLength(s.Points)
	}
	return geometry.PolylineLength(s.Points)
}

func (LineShape) AreaPx2() float64 { return 0 }
func (s LineShape) Corners() int   { return geometry.CornerCount(s.Points, s.Closed) }

type RectShape struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (RectShape) Type() PrimitiveType { return TypeRectangle }
func (s RectShape) LengthPx() float64 { return geometry.RectangleLength(s.Width, s.Height) }
func (s RectShape) AreaPx2() float64  { return geometry.RectangleArea(s.Width, s.Height) }

// Outline возвращает углы прямоугольника по часовой стрелке.
func (s RectShape) Outline() []Point {
	return []Point{
		{X: s.X, Y: s.Y},
		{X: s.X + s.Width, Y: s.Y},
		{X: s.X + s.Width, Y: s.Y + s.Height},
		{X: s.X, Y: s.Y + s.Height},
	}
}

type CircleShape struct {
	CX     float64
	CY     float64
	Radius float64
}

func (CircleShape) Type() PrimitiveType { return TypeCircle }
func (CircleShape) LengthPx() float64   { return 0 }
func (CircleShape) AreaPx2() float64    { return 0 }

type PolygonShape struct {
	Points []Point
}

func (PolygonShape) Type() PrimitiveType { return TypePolygon }

func (s PolygonShape) LengthPx() float64 {
	_, perimeter, _ := geometry.PolygonAreaAndPerimeter(s.Points)
	return perimeter
}

func (s PolygonShape) AreaPx2() float64 {
	area, _, _ := geometry.PolygonAreaAndPerimeter(s.Points)
	return area
}

type TextShape struct {
	X    float64
	Y    float64
	Text string
}

func (TextShape) Type() PrimitiveType { return TypeText }
func (TextShape) LengthPx() float64   { return 0 }
func (TextShape) AreaPx2() float64    { return 0 }

// ============================================================
// Primitive
// ============================================================

// Primitive: одна трассированная фигура на странице проекта.
type Primitive struct {
	ID        string
	ProjectID string
	PageID    string
	Stage     Stage
	Tag       Tag
	Shape     Shape
	Style     json.RawMessage
}

func (p Primitive) Type() PrimitiveType {
	if p.Shape == nil {
		return ""
	}
	return p.Shape.Type()
}

type primitiveJSON struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"projectId,omitempty"`
	PageID    string          `json:"pageId,omitempty"`
	Type      PrimitiveType   `json:"type"`
	Stage     Stage           `json:"stage"`
	Tag       Tag             `json:"tag,omitempty"`
	Data      json.RawMessage `json:"data"`
	Style     json.RawMessage `json:"style,omitempty"`
}

func (p Primitive) MarshalJSON() ([]byte, error) {
	data, err := EncodeShape(p.Shape)
	if err != nil {
		return nil, err
	}
	return json.Marshal(primitiveJSON{
		ID:        p.ID,
		ProjectID: p.ProjectID,
		PageID:    p.PageID,
		Type:      p.Type(),
		Stage:     p.Stage,
		Tag:       p.Tag,
		Data:      data,
		Style:     p.Style,
	})
}

func (p *Primitive) UnmarshalJSON(b []byte) error {
	var raw primitiveJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	shape, err := DecodeShape(raw.Type, raw.Data)
	if err != nil {
		return err
	}
	if !raw.Tag.Valid() {
		return fmt.Errorf("unknown tag %q", raw.Tag)
	}
	*p = Primitive{
		ID:        raw.ID,
		ProjectID: raw.ProjectID,
		PageID:    raw.PageID,
		Stage:     raw.Stage,
		Tag:       raw.Tag,
		Shape:     shape,
		Style:     raw.Style,
	}
	return nil
}

// ============================================================
// Shape data (wire / store format)
// ============================================================

type lineData struct {
	Points   []Point  `json:"points,omitempty"`
	IsClosed *bool    `json:"isClosed,omitempty"`
	X1       *float64 `json:"x1,omitempty"`
	Y1       *float64 `json:"y1,omitempty"`
	X2       *float64 `json:"x2,omitempty"`
	Y2       *float64 `json:"y2,omitempty"`
}

type rectData struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type circleData struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

type polygonData struct {
	Points []Point `json:"points"`
}

type textData struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// DecodeShape разбирает данные фигуры из хранилища. Это единственное место,
// где замкнутость полилинии выводится по совпадению концов (старые записи без флага).
func DecodeShape(t PrimitiveType, data []byte) (Shape, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}

	switch t {
	case TypeLine:
		var d lineData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode line: %w", err)
		}
		points := d.Points
		if len(points) == 0 && d.X1 != nil && d.Y1 != nil && d.X2 != nil && d.Y2 != nil {
			points = []Point{{X: *d.X1, Y: *d.Y1}, {X: *d.X2, Y: *d.Y2}}
		}
		closed := geometry.IsClosedPolyline(points)
		if d.IsClosed != nil {
			closed = *d.IsClosed
		}
		return LineShape{Points: points, Closed: closed}, nil

	case TypeRectangle:
		var d rectData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode rectangle: %w", err)
		}
		return RectShape{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}, nil

	case TypeCircle:
		var d circleData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode circle: %w", err)
		}
		return CircleShape{CX: d.X, CY: d.Y, Radius: d.Radius}, nil

	case TypePolygon:
		var d polygonData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode polygon: %w", err)
		}
		return PolygonShape{Points: d.Points}, nil

	case TypeText:
		var d textData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode text: %w", err)
		}
		return TextShape{X: d.X, Y: d.Y, Text: d.Text}, nil
	}

	return nil, fmt.Errorf("unknown primitive type %q", t)
}

// EncodeShape сериализует фигуру; замкнутость всегда пишется явно.
func EncodeShape(s Shape) ([]byte, error) {
	switch v := s.(type) {
	case LineShape:
		closed := v.Closed
		return json.Marshal(lineData{Points: nonNilPoints(v.Points), IsClosed: &closed})
	case RectShape:
		return json.Marshal(rectData{X: v.X, Y: v.Y, Width: v.Width, Height: v.Height})
	case CircleShape:
		return json.Marshal(circleData{X: v.CX, Y: v.CY, Radius: v.Radius})
	case PolygonShape:
		return json.Marshal(polygonData{Points: nonNilPoints(v.Points)})
	case TextShape:
		return json.Marshal(textData{X: v.X, Y: v.Y, Text: v.Text})
	case nil:
		return nil, fmt.Errorf("primitive has no shape")
	}
	return nil, fmt.Errorf("unsupported shape %T", s)
}

func nonNilPoints(points []Point) []Point {
	if points == nil {
		return []Point{}
	}
	return points
}

// Outline возвращает контур фигуры, годный как полигон помещения. Открытые линии
// и точечные фигуры контура не имеют.
func Outline(s Shape) []Point {
	switch v := s.(type) {
	case PolygonShape:
		return v.Points
	case RectShape:
		return v.Outline()
	case LineShape:
		if v.Closed {
			return geometry.TrimClosingPoint(v.Points)
		}
	}
	return nil
}
