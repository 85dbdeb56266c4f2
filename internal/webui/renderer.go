package webui

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"time"

	"stationboard.org/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the view model of the board page.
type Page struct {
	StopName    string
	CurrentTime string
	Departures  *models.Departures
	Arrivals    *models.Arrivals
}

// NewPage builds the view of b with the header clock showing now.
func NewPage(b *models.Board, now time.Time) Page {
	p := Page{
		StopName:    b.Stop.Name,
		CurrentTime: models.DisplayTime(now),
		Departures:  b.Departures,
		Arrivals:    b.Arrivals,
	}
	if p.Departures == nil {
		p.Departures = &models.Departures{}
	}
	if p.Arrivals == nil {
		p.Arrivals = &models.Arrivals{}
	}
	return p
}

type Renderer struct {
	board *template.Template
	debug *template.Template
}

func NewRenderer() (*Renderer, error) {
	board, err := template.ParseFS(templateFS, "templates/board.html")
	if err != nil {
		return nil, err
	}
	debug, err := template.ParseFS(templateFS, "templates/debug.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{board: board, debug: debug}, nil
}

// MustNewRenderer panics if the embedded templates fail to parse.
func MustNewRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// RenderBoard executes the board template into a buffer first so a template
// error never leaves a half written page behind.
func (r *Renderer) RenderBoard(w io.Writer, p Page) error {
	var buf bytes.Buffer
	if err := r.board.Execute(&buf, p); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
