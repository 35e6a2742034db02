// Package certificate draws the achievement certificate as a PNG.
package certificate

import (
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"marketing-quiz-service/internal/domain"
)

// Logical layout is 800x566 (A-series aspect); the image is drawn at Scale.
const (
	Width  = 800
	Height = 566
	Scale  = 2
)

// DefaultTitle is printed when the certificate carries no quiz title.
const DefaultTitle = "The Psychology of Marketing Quiz"

var (
	background = drawing.ColorFromHex("020617")
	accent     = drawing.ColorFromHex("c084fc")
	corner     = drawing.Color{R: 168, G: 85, B: 247, A: 77}
	white      = drawing.ColorFromHex("ffffff")
	muted      = drawing.ColorFromHex("94a3b8")
	dim        = drawing.ColorFromHex("64748b")
	amber      = drawing.ColorFromHex("fbbf24")
	rule       = drawing.Color{R: 255, G: 255, B: 255, A: 26}
)

var badgeColors = map[domain.Badge]drawing.Color{
	domain.BadgeGold:          drawing.ColorFromHex("f59e0b"),
	domain.BadgeSilver:        drawing.ColorFromHex("cbd5e1"),
	domain.BadgeBronze:        drawing.ColorFromHex("c2410c"),
	domain.BadgeParticipation: drawing.ColorFromHex("6366f1"),
}

// FileName is the download name for a participant's certificate.
func FileName(rollNumber string) string {
	return "Certificate_" + rollNumber + ".png"
}

// Render writes c to w as a PNG of Width*Scale by Height*Scale pixels.
func Render(w io.Writer, c domain.Certificate) error {
	r, err := chart.PNG(Width*Scale, Height*Scale)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	r.SetFont(font)

	fillRect(r, background, 0, 0, Width, Height)
	drawCorners(r)

	title := c.Title
	if title == "" {
		title = DefaultTitle
	}
	centered(r, "CERTIFICATE OF ACHIEVEMENT", 11, accent, 84)
	centered(r, title, 26, white, 130)

	centered(r, "This is to certify that", 12, muted, 210)
	centered(r, c.FullName, 28, white, 262)
	line(r, rule, 2, 220, 280, Width-220, 280)
	centered(r, "has successfully completed the assessment with a score of", 12, muted, 318)
	centered(r, fmt.Sprintf("%d / %d (%d%%)", c.Score.Correct, c.Score.Total, c.Score.Percentage), 22, amber, 362)

	// Footer: roll number, badge, issue date.
	text(r, "ROLL NUMBER", 8, dim, 96, 470)
	text(r, c.RollNumber, 11, white, 96, 492)

	badge := badgeColors[c.Score.Badge]
	if badge == (drawing.Color{}) {
		badge = badgeColors[domain.BadgeParticipation]
	}
	fillRect(r, badge, Width/2-32, 430, 64, 64)
	centered(r, strings.ToUpper(string(c.Score.Badge))+" BADGE", 7, dim, 512)

	date := c.IssuedAt.Format("02 Jan 2006")
	rightText(r, "DATE ISSUED", 8, dim, Width-96, 470)
	rightText(r, date, 11, white, Width-96, 492)

	if err := r.Save(w); err != nil {
		return fmt.Errorf("encode certificate: %w", err)
	}
	return nil
}

func drawCorners(r chart.Renderer) {
	const (
		inset = 16
		size  = 128
		width = 4
	)
	left, top := inset, inset
	right, bottom := Width-inset, Height-inset
	line(r, corner, width, left, top+size, left, top)
	line(r, corner, width, left, top, left+size, top)
	line(r, corner, width, right-size, top, right, top)
	line(r, corner, width, right, top, right, top+size)
	line(r, corner, width, left, bottom-size, left, bottom)
	line(r, corner, width, left, bottom, left+size, bottom)
	line(r, corner, width, right-size, bottom, right, bottom)
	line(r, corner, width, right, bottom, right, bottom-size)
}

func fillRect(r chart.Renderer, color drawing.Color, x, y, w, h int) {
	r.SetFillColor(color)
	r.SetStrokeColor(color)
	r.MoveTo(x*Scale, y*Scale)
	r.LineTo((x+w)*Scale, y*Scale)
	r.LineTo((x+w)*Scale, (y+h)*Scale)
	r.LineTo(x*Scale, (y+h)*Scale)
	r.Close()
	r.Fill()
}

func line(r chart.Renderer, color drawing.Color, width float64, x1, y1, x2, y2 int) {
	r.SetStrokeColor(color)
	r.SetStrokeWidth(width * Scale)
	r.MoveTo(x1*Scale, y1*Scale)
	r.LineTo(x2*Scale, y2*Scale)
	r.Stroke()
}

func setFont(r chart.Renderer, size float64, color drawing.Color) {
	r.SetFontSize(size * Scale)
	r.SetFontColor(color)
}

func text(r chart.Renderer, body string, size float64, color drawing.Color, x, y int) {
	setFont(r, size, color)
	r.Text(body, x*Scale, y*Scale)
}

func rightText(r chart.Renderer, body string, size float64, color drawing.Color, x, y int) {
	setFont(r, size, color)
	box := r.MeasureText(body)
	r.Text(body, x*Scale-box.Width(), y*Scale)
}

func centered(r chart.Renderer, body string, size float64, color drawing.Color, y int) {
	setFont(r, size, color)
	box := r.MeasureText(body)
	r.Text(body, (Width*Scale-box.Width())/2, y*Scale)
}
