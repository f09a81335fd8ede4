// Package render pretty-prints analysis output tables for the terminal.
package render

import (
	"fmt"
	"sort"
	"strings"

	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"golm/domain/report"
)

func newWriter(title string) prettytable.Writer {
	w := prettytable.NewWriter()
	w.SetStyle(prettytable.StyleLight)
	if title != "" {
		w.SetTitle(title)
	}
	return w
}

// Descriptives renders a descriptive-statistics table
func Descriptives(rows []report.DescriptiveRow) string {
	w := newWriter("Descriptives")
	grouped := len(rows) > 0 && rows[0].Groups != nil
	header := prettytable.Row{"Variable"}
	var groupCols []string
	if grouped {
		for g := range rows[0].Groups {
			groupCols = append(groupCols, g)
		}
		sort.Strings(groupCols)
		for _, g := range groupCols {
			header = append(header, g)
		}
	}
	header = append(header, "N", "Excluded", "Mean", "SD", "SE", "Median", "Min", "Max", "Skew", "Kurtosis")
	w.AppendHeader(header)
	for _, r := range rows {
		row := prettytable.Row{r.Variable}
		for _, g := range groupCols {
			row = append(row, r.Groups[g])
		}
		row = append(row, r.N, r.Excluded,
			num(r.Mean), num(r.SD), num(r.SE), num(r.Median),
			num(r.Min), num(r.Max), num(r.Skewness), num(r.Kurtosis))
		w.AppendRow(row)
	}
	return w.Render()
}

// ModelSummary renders the fitted-model coefficient table plus fit statistics
func ModelSummary(s report.ModelSummary) string {
	w := newWriter(fmt.Sprintf("Linear Model: %s", s.Outcome))
	ciLabel := fmt.Sprintf("%.0f%% CI", s.Confidence*100)
	hasVIF := false
	for _, c := range s.Coefficients {
		if c.VIF != 0 {
			hasVIF = true
			break
		}
	}
	header := prettytable.Row{"Term", "Estimate", "SE", "t", "p", ciLabel}
	if hasVIF {
		header = append(header, "VIF")
	}
	w.AppendHeader(header)
	for _, c := range s.Coefficients {
		row := prettytable.Row{c.Term, num(c.Estimate), num(c.SE), num(c.T), pval(c.P),
			fmt.Sprintf("[%s, %s]", num(c.Lower), num(c.Upper))}
		if hasVIF {
			if c.VIF != 0 {
				row = append(row, num(c.VIF))
			} else {
				row = append(row, "")
			}
		}
		w.AppendRow(row)
	}
	var fit strings.Builder
	fit.WriteString(w.Render())
	fit.WriteString(fmt.Sprintf("\nN = %d (excluded %d), R2 = %.4f, adj R2 = %.4f",
		s.N, s.Excluded, s.R2, s.AdjR2))
	if s.FDF1 > 0 {
		fit.WriteString(fmt.Sprintf(", F(%d, %d) = %.3f, p = %s", s.FDF1, s.FDF2, s.F, pval(s.FP)))
	}
	return fit.String()
}

// MarginalMeans renders an estimated-marginal-means table
func MarginalMeans(rows []report.MarginalMeanRow) string {
	w := newWriter("Estimated Marginal Means")
	hasBy := false
	for _, r := range rows {
		if r.By != "" {
			hasBy = true
			break
		}
	}
	header := prettytable.Row{"Levels"}
	if hasBy {
		header = append(header, "Stratum")
	}
	header = append(header, "Estimate", "SE", "df", "CI")
	w.AppendHeader(header)
	for _, r := range rows {
		var keys []string
		for k := range r.Levels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%s", k, r.Levels[k])
		}
		row := prettytable.Row{strings.Join(parts, ", ")}
		if hasBy {
			row = append(row, r.By)
		}
		row = append(row, num(r.Estimate), num(r.SE), r.DF,
			fmt.Sprintf("[%s, %s]", num(r.Lower), num(r.Upper)))
		w.AppendRow(row)
	}
	return w.Render()
}

// Contrasts renders a pairwise-contrasts table
func Contrasts(rows []report.ContrastRow) string {
	w := newWriter("Pairwise Contrasts")
	hasBy := false
	for _, r := range rows {
		if r.By != "" {
			hasBy = true
			break
		}
	}
	header := prettytable.Row{"Contrast"}
	if hasBy {
		header = append(header, "Stratum")
	}
	header = append(header, "Difference", "SE", "t", "p", "Adjustment")
	w.AppendHeader(header)
	for _, r := range rows {
		row := prettytable.Row{fmt.Sprintf("%s - %s", r.Left, r.Right)}
		if hasBy {
			row = append(row, r.By)
		}
		row = append(row, num(r.Difference), num(r.SE), num(r.T), pval(r.P), r.Adjustment)
		w.AppendRow(row)
	}
	return w.Render()
}

// Slopes renders a simple-slopes table
func Slopes(t report.SlopesTable) string {
	w := newWriter(fmt.Sprintf("Simple Slopes: %s at %s", t.Predictor, t.Moderator))
	w.AppendHeader(prettytable.Row{t.Moderator, "Slope", "SE", "t", "p", "CI"})
	for _, r := range t.Rows {
		w.AppendRow(prettytable.Row{num(r.ModValue), num(r.Slope), num(r.SE), num(r.T), pval(r.P),
			fmt.Sprintf("[%s, %s]", num(r.Lower), num(r.Upper))})
	}
	out := w.Render()
	if len(t.JNBounds) > 0 {
		bounds := make([]string, len(t.JNBounds))
		for i, b := range t.JNBounds {
			bounds[i] = num(b)
		}
		out += fmt.Sprintf("\nJohnson-Neyman bounds: %s", strings.Join(bounds, ", "))
	}
	return out
}

func num(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

func pval(p float64) string {
	if p < 0.001 {
		return "<.001"
	}
	return fmt.Sprintf("%.3f", p)
}
