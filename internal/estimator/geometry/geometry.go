// Package geometry содержит чистые функции над трассированными примитивами.
// Все величины в пикселях; перевод в метры делает вызывающий код один раз.
package geometry

import "math"

// ============================================================
// Geometry primitives
// ============================================================

// Epsilon: допуск совпадения точек в единицах чертежа.
const Epsilon = 1e-6

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance возвращает евклидово расстояние между точками.
func Distance(p1, p2 Point) float64 {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// SamePoint сравнивает точки с допуском Epsilon.
func SamePoint(a, b Point) bool {
	return Distance(a, b) <= Epsilon
}

// ============================================================
// Lines
// ============================================================

// LineLength считает длину отрезка в старом формате x1,y1,x2,y2.
func LineLength(x1, y1, x2, y2 float64) float64 {
	return Distance(Point{X: x1, Y: y1}, Point{X: x2, Y: y2})
}

// PolylineLength суммирует длины последовательных сегментов.
func PolylineLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// ClosedPolylineLength добавляет замыкающее ребро, если последняя точка
// не повторяет первую.
func ClosedPolylineLength(points []Point) float64 {
	total := PolylineLength(points)
	n := len(points)
	if n > 2 && !SamePoint(points[0], points[n-1]) {
		total += Distance(points[n-1], points[0])
	}
	return total
}

// IsClosedPolyline определяет замкнутость по совпадению первой и последней точки.
// Используется только для legacy-данных без явного флага.
func IsClosedPolyline(points []Point) bool {
	if len(points) < 3 {
		return false
	}
	return SamePoint(points[0], points[len(points)-1])
}

// CornerCount считает углы плинтуса.
// Замкнутая линия: число вершин без дубля замыкания. Открытая: без двух концов.
func CornerCount(points []Point, closed bool) int {
	n := len(points)
	if closed {
		if n > 1 && SamePoint(points[0], points[n-1]) {
			return n - 1
		}
		return n
	}
	if n < 2 {
		return 0
	}
	return n - 2
}

// ============================================================
// Rectangles & circles
// ============================================================

// RectangleDims нормализует отрицательные размеры (прямоугольник нарисован «назад»).
func RectangleDims(width, height float64) (float64, float64) {
	return math.Abs(width), math.Abs(height)
}

// RectangleLength: длина прямоугольника-стены равна длинной стороне.
func RectangleLength(width, height float64) float64 {
	w, h := RectangleDims(width, height)
	return math.Max(w, h)
}

func RectangleArea(width, height float64) float64 {
	w, h := RectangleDims(width, height)
	return w * h
}

// CircleDims возвращает радиус и диаметр.
func CircleDims(radius float64) (float64, float64) {
	r := math.Abs(radius)
	return r, 2 * r
}

// ============================================================
// Polygons
// ============================================================

// PolygonAreaAndPerimeter считает площадь по формуле шнурков и периметр
// с замыкающим ребром. Для менее чем трёх точек ok=false.
// Явный дубль замыкающей точки не влияет на результат.
func PolygonAreaAndPerimeter(points []Point) (area, perimeter float64, ok bool) {
	n := len(points)
	if n < 3 {
		return 0, 0, false
	}

	var sum float64
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
		perimeter += Distance(a, b)
	}
	return math.Abs(sum) / 2, perimeter, true
}

// TrimClosingPoint убирает дубль замыкания, если он есть.
func TrimClosingPoint(points []Point) []Point {
	if len(points) > 1 && SamePoint(points[0], points[len(points)-1]) {
		return points[:len(points)-1]
	}
	return points
}

// Centroid возвращает среднее арифметическое вершин.
func Centroid(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	return Point{X: sumX / float64(len(points)), Y: sumY / float64(len(points))}, true
}
