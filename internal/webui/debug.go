package webui

import (
	"bytes"
	"io"

	"github.com/davecgh/go-spew/spew"
)

type debugData struct {
	Title string
	Pre   string
}

// RenderDebug dumps data with spew inside a bare page.
func (r *Renderer) RenderDebug(w io.Writer, title string, data interface{}) error {
	var buf bytes.Buffer
	err := r.debug.Execute(&buf, debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	})
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}
