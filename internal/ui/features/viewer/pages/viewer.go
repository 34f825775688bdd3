// Package pages renders full viewer documents.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	commonComponents "github.com/leapstack-labs/arcview/internal/ui/features/common/components"
	"github.com/leapstack-labs/arcview/internal/ui/features/viewer/components"
	"github.com/leapstack-labs/arcview/internal/workspace"
)

// ViewerPage renders the whole viewer: upload form, the patchable viewer
// section, the code editor and the palette legend. flashes are shown as a
// blocking alert.
func ViewerPage(title string, isDev bool, flashes []string, v workspace.View) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := commonComponents.NewHTML(w)
		h.Render(ctx, commonComponents.Alert(flashes))
		h.Raw(`<main class="app"><h1>Matrix Transformation App</h1>`)

		h.Raw(`<form class="upload" method="post" action="/upload" enctype="multipart/form-data">`)
		h.Raw(`<label for="task-upload">Upload JSON:</label>`)
		h.Raw(`<input id="task-upload" name="task" type="file" accept=".json,.yaml,.yml,application/json">`)
		h.Raw(`<button type="submit">Load</button></form>`)

		h.Render(ctx, components.Viewer(v, ""))

		h.Raw(`<section class="code"><h2>Transformation Code</h2>`)
		h.Render(ctx, components.CodeForm(v.Code))
		h.Raw(`</section>`)

		h.Raw(`<section class="palette"><h2>Color Map</h2>`)
		h.Render(ctx, components.Legend())
		h.Raw(`</section></main>`)
		return h.Err()
	})
	return commonComponents.Page(title, isDev, body)
}
