package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/models"
	"github.com/san-kum/icpwalk/internal/sim"
	"github.com/san-kum/icpwalk/internal/storage"
	"github.com/san-kum/icpwalk/internal/viz"
)

const (
	comStroke  = "#888888"
	icpStroke  = "#1f77b4"
	leftFill   = "#2ca02c"
	rightFill  = "#d62728"
	background = "#0a0a0a"
)

// CanvasToSVG converts a braille canvas to SVG, one circle per set dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#00ff00">
`, width, height, width, height, background))

	dotRadius := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b *bounds) add(x, y float64) {
	b.minX = math.Min(b.minX, x)
	b.maxX = math.Max(b.maxX, x)
	b.minY = math.Min(b.minY, y)
	b.maxY = math.Max(b.maxY, y)
}

// WalkToSVG draws the CoM and ICP paths of a run over its footsteps, top
// down with forward to the right. It returns "" when there is nothing to draw.
func WalkToSVG(states []sim.State, footsteps []storage.Footprint, width, height int) string {
	if len(states) < 2 {
		return ""
	}

	b := bounds{minX: math.Inf(1), maxX: math.Inf(-1), minY: math.Inf(1), maxY: math.Inf(-1)}
	for _, x := range states {
		b.add(x[models.CoMX], x[models.CoMY])
		b.add(x[models.ICPX], x[models.ICPY])
	}
	for _, f := range footsteps {
		b.add(f.Pose.X, f.Pose.Y)
	}

	// Add padding
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * 0.1
	b.maxX += rangeX * 0.1
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	rangeX = b.maxX - b.minX
	rangeY = b.maxY - b.minY

	project := func(x, y float64) (float64, float64) {
		return (x - b.minX) / rangeX * float64(width),
			float64(height) - (y-b.minY)/rangeY*float64(height)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))

	for _, f := range footsteps {
		fill := rightFill
		if f.Side == footstep.Left.String() {
			fill = leftFill
		}
		cx, cy := project(f.Pose.X, f.Pose.Y)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="4" fill="%s"/>
`, cx, cy, fill))
	}

	writePath := func(stroke string, xi, yi int) {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
		for i, x := range states {
			px, py := project(x[xi], x[yi])
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", px, py))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px, py))
			}
		}
		sb.WriteString("\"/>\n")
	}
	writePath(comStroke, models.CoMX, models.CoMY)
	writePath(icpStroke, models.ICPX, models.ICPY)

	sb.WriteString("</svg>")
	return sb.String()
}
