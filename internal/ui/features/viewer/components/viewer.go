// Package components renders the parts of the viewer page that the server
// patches in place.
package components

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/arcview/internal/render"
	"github.com/leapstack-labs/arcview/internal/ui/features/common"
	html "github.com/leapstack-labs/arcview/internal/ui/features/common/components"
	"github.com/leapstack-labs/arcview/internal/viewstate"
	"github.com/leapstack-labs/arcview/internal/workspace"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

// ViewerID is the element id patched by every view action.
const ViewerID = "viewer"

// Viewer renders the controls and visible examples of a workspace view.
// notice is an optional one-off message shown above the examples.
func Viewer(v workspace.View, notice string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := html.NewHTML(w)
		h.Raw(`<section`)
		h.Attr("id", ViewerID)
		h.Raw(`>`)

		h.Render(ctx, taskHeader(v))
		h.Render(ctx, Controls(v))

		h.Raw(`<h2>`)
		h.Text(common.SetHeading(v.State.ActiveSet))
		h.Raw(`</h2>`)

		if notice != "" {
			h.Raw(`<p class="notice" role="status">`)
			h.Text(notice)
			h.Raw(`</p>`)
		}
		h.Render(ctx, TransformStatus(v))

		if len(v.Examples) == 0 {
			h.Raw(`<p class="empty">No examples in this set. Upload a task file to get started.</p>`)
		}
		h.Raw(`<div class="examples">`)
		for _, ex := range v.Examples {
			h.Render(ctx, Example(ex))
		}
		h.Raw(`</div></section>`)
		return h.Err()
	})
}

func taskHeader(v workspace.View) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := html.NewHTML(w)
		h.Raw(`<p class="task">`)
		if v.Name == "" {
			h.Raw(`No task loaded`)
		} else {
			h.Raw(`<strong>`)
			h.Text(v.Name)
			h.Raw(`</strong> `)
			h.Text(common.CountLabel(v.TrainCount, "training example") + ", " + common.CountLabel(v.TestCount, "test example"))
		}
		h.Raw(`</p>`)
		return h.Err()
	})
}

// Controls renders the set switch, the display-mode switch and, in single
// mode, the previous/next pager.
func Controls(v workspace.View) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := html.NewHTML(w)
		st := v.State
		h.Raw(`<nav class="controls">`)

		h.Raw(`<div class="switch" role="group" aria-label="Example set">`)
		actionButton(h, "/view/set/train", "Training", st.ActiveSet == grid.SetTrain, false)
		actionButton(h, "/view/set/test", "Test", st.ActiveSet == grid.SetTest, false)
		h.Raw(`</div>`)

		h.Raw(`<div class="switch" role="group" aria-label="Display mode">`)
		actionButton(h, "/view/mode/single", "One at a time", st.DisplayMode == viewstate.ModeSingle, st.ModeLocked)
		actionButton(h, "/view/mode/all", "Show all", st.DisplayMode == viewstate.ModeAll, st.ModeLocked)
		h.Raw(`</div>`)

		if st.DisplayMode == viewstate.ModeSingle && v.ActiveCount > 0 {
			h.Raw(`<div class="pager">`)
			actionButton(h, "/view/prev", "Previous", false, !v.CanPrevious)
			h.Raw(`<span class="position">Example `)
			h.Text(strconv.Itoa(st.CurrentIndex + 1))
			h.Raw(` of `)
			h.Text(strconv.Itoa(v.ActiveCount))
			h.Raw(`</span>`)
			actionButton(h, "/view/next", "Next", false, !v.CanNext)
			h.Raw(`</div>`)
		}

		h.Raw(`</nav>`)
		return h.Err()
	})
}

// actionButton renders a POST form that datastar intercepts. Without
// JavaScript the form posts normally and the server redirects back.
func actionButton(h *html.HTML, action, label string, pressed, disabled bool) {
	h.Raw(`<form method="post"`)
	h.Attr("action", action)
	h.Attr("data-on:submit__prevent", "@post('"+action+"')")
	h.Raw(`><button type="submit"`)
	h.Attr("aria-pressed", strconv.FormatBool(pressed))
	h.BoolAttr("disabled", disabled)
	h.Raw(`>`)
	h.Text(label)
	h.Raw(`</button></form>`)
}

// TransformStatus summarizes the last applied transform.
func TransformStatus(v workspace.View) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if !v.Applied {
			return nil
		}
		h := html.NewHTML(w)
		if v.ApplyErr != "" {
			h.Raw(`<pre class="transform-status error">`)
			h.Text(v.ApplyErr)
			h.Raw(`</pre>`)
			return h.Err()
		}
		h.Raw(`<p class="transform-status">`)
		if v.Checked == 0 {
			h.Raw(`Transformation applied.`)
		} else {
			h.Text("Solved " + strconv.Itoa(v.Solved) + " of " + strconv.Itoa(v.Checked) + ".")
		}
		h.Raw(`</p>`)
		return h.Err()
	})
}

// Example renders one example card with its input, intermediate and, when
// present, output panels.
func Example(ex render.ExampleView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := html.NewHTML(w)
		h.Raw(`<article class="example"`)
		h.Attr("id", "example-"+ex.Set.String()+"-"+strconv.Itoa(ex.Index))
		h.Raw(`><header><h3>Example `)
		h.Text(strconv.Itoa(ex.Number()))
		h.Raw(`</h3>`)
		if ex.Matches != nil {
			if *ex.Matches {
				h.Raw(`<span class="badge match">match</span>`)
			} else {
				h.Raw(`<span class="badge mismatch">mismatch</span>`)
			}
		}
		h.Raw(`</header>`)
		if ex.TransformErr != "" {
			h.Raw(`<pre class="transform-error">`)
			h.Text(ex.TransformErr)
			h.Raw(`</pre>`)
		}
		h.Raw(`<div class="panels">`)
		h.Render(ctx, Grid(ex.Input))
		h.Render(ctx, Grid(ex.Middle))
		if ex.Output != nil {
			h.Render(ctx, Grid(*ex.Output))
		}
		h.Raw(`</div></article>`)
		return h.Err()
	})
}

// Grid renders a grid description as a CSS grid of colored cells.
func Grid(g render.Grid) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := html.NewHTML(w)
		size := common.Px(g.CellSize)

		h.Raw(`<figure`)
		h.Attr("class", "panel "+g.Role.String())
		h.Raw(`><figcaption>`)
		h.Text(g.Role.Title())
		h.Raw(` <small>`)
		if len(g.Colors) == 0 {
			h.Raw(`empty`)
		} else {
			h.Text(strconv.Itoa(g.Rows) + "x" + strconv.Itoa(g.Columns))
		}
		h.Raw(`</small></figcaption><div class="grid"`)
		h.Attr("style", "grid-template-columns:repeat("+strconv.Itoa(g.Columns)+","+size+");grid-auto-rows:"+size)
		h.Raw(`>`)
		for _, c := range g.Colors {
			h.Raw(`<div class="cell"`)
			h.Attr("style", "background-color:"+c)
			h.Raw(`></div>`)
		}
		h.Raw(`</div></figure>`)
		return h.Err()
	})
}

// Legend renders the palette as value swatches.
func Legend() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := html.NewHTML(w)
		h.Raw(`<ul class="legend">`)
		for _, l := range render.PaletteLegend() {
			h.Raw(`<li><span class="swatch"`)
			h.Attr("style", "background-color:"+l.Color)
			h.Attr("title", l.Name)
			h.Raw(`></span>`)
			h.Text(strconv.Itoa(l.Value))
			h.Raw(`</li>`)
		}
		h.Raw(`</ul>`)
		return h.Err()
	})
}

// CodeForm renders the transformation code editor. The textarea is bound
// to the "code" signal that POST /transform reads.
func CodeForm(code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := html.NewHTML(w)
		h.Raw(`<form id="transform" method="post" action="/transform" data-on:submit__prevent="@post('/transform')">`)
		h.Raw(`<textarea name="code" rows="10" spellcheck="false" data-bind:code`)
		h.Attr("placeholder", "def transform(grid):\n    return grid")
		h.Raw(`>`)
		h.Text(code)
		h.Raw(`</textarea><button type="submit">Apply Transformation</button></form>`)
		return h.Err()
	})
}
