package components

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/arcview/internal/ui/resources"
)

// DatastarScript is the client bundle the pages load.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// Page wraps body in the HTML document shell. The body opens the
// long-lived /updates stream on load; in dev builds it also listens on
// /reload for hot reloads.
func Page(title string, isDev bool, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := NewHTML(w)
		h.Raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		h.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.Raw(`<title>`)
		h.Text(title + " - arcview")
		h.Raw(`</title>`)
		h.Raw(`<link rel="stylesheet"`)
		h.Attr("href", resources.StaticPath("viewer.css"))
		h.Raw(`>`)
		h.Raw(`<script type="module"`)
		h.Attr("src", DatastarScript)
		h.Raw(`></script></head>`)
		h.Raw(`<body data-init="@get('/updates')">`)
		if isDev {
			h.Raw(`<div hidden data-init="@get('/reload')"></div>`)
		}
		h.Render(ctx, body)
		h.Raw(`</body></html>`)
		return h.Err()
	})
}

// Alert renders messages as a modal dialog the user has to dismiss.
func Alert(messages []string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(messages) == 0 {
			return nil
		}
		h := NewHTML(w)
		h.Raw(`<dialog id="alert" class="alert" role="alertdialog" open><form method="dialog">`)
		for _, msg := range messages {
			h.Raw(`<p>`)
			h.Text(msg)
			h.Raw(`</p>`)
		}
		h.Raw(`<button type="submit" autofocus>OK</button></form></dialog>`)
		return h.Err()
	})
}
