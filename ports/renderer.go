package ports

import (
	"context"

	"golm/domain/report"
)

// PlotRenderer turns a plot-ready table into an image file. The style is an
// immutable per-call configuration, never shared mutable state. Rendering is
// an external collaborator; the pipeline only produces its inputs.
type PlotRenderer interface {
	Render(ctx context.Context, tbl report.PlotTable, style report.PlotStyle) (path string, err error)
}
