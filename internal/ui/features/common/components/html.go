// Package components holds markup shared by every page.
package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// HTML accumulates markup and remembers the first write error, so
// component bodies can write without checking every call.
type HTML struct {
	w   io.Writer
	err error
}

// NewHTML wraps w.
func NewHTML(w io.Writer) *HTML {
	return &HTML{w: w}
}

// Raw writes trusted markup as is.
func (h *HTML) Raw(parts ...string) {
	for _, p := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, p)
	}
}

// Text writes s escaped for element content or a quoted attribute value.
func (h *HTML) Text(s string) {
	h.Raw(templ.EscapeString(s))
}

// Attr writes ` name="value"` with the value escaped.
func (h *HTML) Attr(name, value string) {
	h.Raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

// BoolAttr writes ` name` when on is true.
func (h *HTML) BoolAttr(name string, on bool) {
	if on {
		h.Raw(" ", name)
	}
}

// Render renders a child component into the same writer.
func (h *HTML) Render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// Err returns the first write error.
func (h *HTML) Err() error {
	return h.err
}
