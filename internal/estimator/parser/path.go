package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"renovation-estimator/internal/estimator/models"
)

// ============================================================
// Path Parser
// ============================================================

var pathCommand = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)

// ParsePath разбирает SVG path из команд M, L, H, V, Z (и их относительных
// вариантов). closed=true, если путь замкнут командой Z. Кривые не поддерживаются.
func ParsePath(d string) (points []models.Point, closed bool, err error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, false, fmt.Errorf("empty path")
	}

	var x, y float64
	push := func() { points = append(points, models.Point{X: x, Y: y}) }

	for _, match := range pathCommand.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		coords := parseCoords(match[2])

		switch cmd {
		case "M", "L":
			// после M лишние пары координат трактуются как L
			for i := 0; i+1 < len(coords); i += 2 {
				x, y = coords[i], coords[i+1]
				push()
			}

		case "m", "l":
			for i := 0; i+1 < len(coords); i += 2 {
				x += coords[i]
				y += coords[i+1]
				push()
			}

		case "H":
			for _, v := range coords {
				x = v
				push()
			}

		case "h":
			for _, v := range coords {
				x += v
				push()
			}

		case "V":
			for _, v := range coords {
				y = v
				push()
			}

		case "v":
			for _, v := range coords {
				y += v
				push()
			}

		case "Z", "z":
			if len(points) > 0 {
				closed = true
				points = append(points, points[0])
				x, y = points[0].X, points[0].Y
			}
		}
	}

	if len(points) == 0 {
		return nil, false, fmt.Errorf("path %q has no points", d)
	}
	return points, closed, nil
}

func parseCoords(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Разделитель: запятая или пробел
	s = strings.ReplaceAll(s, ",", " ")
	parts := strings.Fields(s)

	var coords []float64
	for _, part := range parts {
		val, err := strconv.ParseFloat(part, 64)
		if err == nil {
			coords = append(coords, val)
		}
	}

	return coords
}
