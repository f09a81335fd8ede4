// Package report defines the self-contained output tables of an analysis
// run. Each type is a plain value handed to presentation or persistence
// collaborators; nothing here references fitted-model internals.
package report

// DescriptiveRow holds per-variable summary statistics computed over
// non-missing values only. Excluded reports the dropped-row count.
type DescriptiveRow struct {
	Variable string            `json:"variable"`
	Groups   map[string]string `json:"groups,omitempty"` // group factor -> level, for grouped tables
	N        int               `json:"n"`
	Excluded int               `json:"excluded"`
	Mean     float64           `json:"mean"`
	SD       float64           `json:"sd"`
	SE       float64           `json:"se"`
	Median   float64           `json:"median"`
	Min      float64           `json:"min"`
	Max      float64           `json:"max"`
	Skewness float64           `json:"skewness"`
	Kurtosis float64           `json:"kurtosis"`
}

// CoefficientRow is one line of a fitted-model summary
type CoefficientRow struct {
	Term     string  `json:"term"`
	Estimate float64 `json:"estimate"`
	SE       float64 `json:"se"`
	T        float64 `json:"t"`
	P        float64 `json:"p"`
	Lower    float64 `json:"ci_lower"`
	Upper    float64 `json:"ci_upper"`
	VIF      float64 `json:"vif,omitempty"`
}

// ModelSummary is the complete fitted-model output
type ModelSummary struct {
	Outcome      string           `json:"outcome"`
	Coefficients []CoefficientRow `json:"coefficients"`
	N            int              `json:"n"`
	Excluded     int              `json:"excluded"`
	ResidualDF   int              `json:"residual_df"`
	R2           float64          `json:"r2"`
	AdjR2        float64          `json:"adj_r2"`
	F            float64          `json:"f"`
	FDF1         int              `json:"f_df1"`
	FDF2         int              `json:"f_df2"`
	FP           float64          `json:"f_p"`
	Confidence   float64          `json:"confidence"`
}

// MarginalMeanRow is a model-predicted mean for one factor-level combination
type MarginalMeanRow struct {
	Levels   map[string]string `json:"levels"`
	By       string            `json:"by,omitempty"` // stratifying level, if any
	Estimate float64           `json:"estimate"`
	SE       float64           `json:"se"`
	DF       int               `json:"df"`
	Lower    float64           `json:"ci_lower"`
	Upper    float64           `json:"ci_upper"`
}

// ContrastRow is a pairwise difference between two marginal means
type ContrastRow struct {
	Left       string  `json:"left"`
	Right      string  `json:"right"`
	By         string  `json:"by,omitempty"`
	Difference float64 `json:"difference"`
	SE         float64 `json:"se"`
	T          float64 `json:"t"`
	P          float64 `json:"p"`
	Adjustment string  `json:"adjustment"`
}

// SimpleSlopeRow is the conditional slope of a predictor at one moderator value
type SimpleSlopeRow struct {
	ModValue float64 `json:"mod_value"`
	Slope    float64 `json:"slope"`
	SE       float64 `json:"se"`
	T        float64 `json:"t"`
	P        float64 `json:"p"`
	Lower    float64 `json:"ci_lower"`
	Upper    float64 `json:"ci_upper"`
}

// SlopesTable is the full simple-slopes output for one predictor/moderator pair
type SlopesTable struct {
	Predictor string           `json:"predictor"`
	Moderator string           `json:"moderator"`
	Rows      []SimpleSlopeRow `json:"rows"`
	// JNBounds holds Johnson-Neyman boundaries where the slope's confidence
	// bound crosses zero, when requested.
	JNBounds []float64 `json:"jn_bounds,omitempty"`
}

// PlotPoint is one renderable estimate
type PlotPoint struct {
	Level    string  `json:"level"`
	Group    string  `json:"group,omitempty"`
	Estimate float64 `json:"estimate"`
	SE       float64 `json:"se"`
	Lower    float64 `json:"ci_lower"`
	Upper    float64 `json:"ci_upper"`
}

// PlotTable is the plot-ready output consumed by the rendering collaborator
type PlotTable struct {
	Title  string      `json:"title"`
	XLabel string      `json:"x_label"`
	YLabel string      `json:"y_label"`
	Points []PlotPoint `json:"points"`
}

// PlotStyle is an immutable styling configuration passed per render call,
// never shared mutable state.
type PlotStyle struct {
	Palette    []string `json:"palette"`
	FontFamily string   `json:"font_family"`
	FontSize   int      `json:"font_size"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	DPI        int      `json:"dpi"`
	OutputDir  string   `json:"output_dir"`
	Format     string   `json:"format"` // "png", "svg"
}

// DefaultPlotStyle returns the house style
func DefaultPlotStyle() PlotStyle {
	return PlotStyle{
		Palette:    []string{"#4C72B0", "#DD8452", "#55A868", "#C44E52"},
		FontFamily: "Helvetica",
		FontSize:   12,
		Width:      1600,
		Height:     1000,
		DPI:        200,
		Format:     "png",
	}
}
