package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"golm/adapters/excel"
	"golm/adapters/postgres"
	"golm/app"
	"golm/domain/report"
	"golm/domain/table"
	"golm/internal"
	"golm/internal/analysis"
	"golm/internal/config"
	"golm/internal/render"
	"golm/ports"
)

func main() {
	// .env is optional; the environment wins.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "golm",
		Short: "Linear-model analysis pipeline: descriptives, OLS, marginal means, contrasts, simple slopes",
	}

	rootCmd.AddCommand(
		newDescribeCmd(),
		newFitCmd(),
		newEMMeansCmd(),
		newSlopesCmd(),
		newRunCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newDescribeCmd() *cobra.Command {
	var dataFile, varsFlag, byFlag string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Descriptive statistics, overall or per group combination",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTable(dataFile)
			if err != nil {
				return err
			}
			describer := analysis.NewDescriber()
			vars := splitList(varsFlag)
			var rows []report.DescriptiveRow
			if byFlag != "" {
				rows, err = describer.DescribeByGroup(t, vars, splitList(byFlag))
			} else {
				rows, err = describer.Describe(t, vars)
			}
			if err != nil {
				return err
			}
			fmt.Println(render.Descriptives(rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataFile, "data", "", "path to xlsx/csv dataset")
	cmd.Flags().StringVar(&varsFlag, "vars", "", "comma-separated variables")
	cmd.Flags().StringVar(&byFlag, "by", "", "comma-separated grouping factors")
	cmd.MarkFlagRequired("vars")
	return cmd
}

func newFitCmd() *cobra.Command {
	var dataFile, outcome, terms string
	var withVIF bool
	var confidence float64

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit an OLS linear model from an explicit term list",
		Long: `Fit an OLS model. Terms are comma-separated; a colon marks an interaction.

Example: golm fit --data study.xlsx --outcome anxiety --terms "group,stress,stress:selfesteem" --vif`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := fitModel(dataFile, outcome, terms)
			if err != nil {
				return err
			}
			summary := m.Summary(confidence)
			if withVIF {
				vifs, err := m.VIFTable()
				if err != nil {
					return err
				}
				for i := range summary.Coefficients {
					summary.Coefficients[i].VIF = vifs[summary.Coefficients[i].Term]
				}
			}
			fmt.Println(render.ModelSummary(summary))
			return nil
		},
	}
	addModelFlags(cmd, &dataFile, &outcome, &terms)
	cmd.Flags().BoolVar(&withVIF, "vif", false, "report variance inflation factors")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "confidence level for intervals")
	return cmd
}

func newEMMeansCmd() *cobra.Command {
	var dataFile, outcome, terms, factors, by, adjust string
	var contrasts, reverse bool
	var confidence float64

	cmd := &cobra.Command{
		Use:   "emmeans",
		Short: "Estimated marginal means with optional pairwise contrasts",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := fitModel(dataFile, outcome, terms)
			if err != nil {
				return err
			}
			em, err := analysis.EMMeans(m, analysis.EMMRequest{
				Factors:    splitList(factors),
				By:         by,
				Confidence: confidence,
			})
			if err != nil {
				return err
			}
			fmt.Println(render.MarginalMeans(em.Rows()))
			if contrasts {
				rows, err := analysis.PairwiseContrasts(em, analysis.ContrastRequest{
					Reverse: reverse,
					Adjust:  analysis.Adjustment(adjust),
				})
				if err != nil {
					return err
				}
				fmt.Println(render.Contrasts(rows))
			}
			return nil
		},
	}
	addModelFlags(cmd, &dataFile, &outcome, &terms)
	cmd.Flags().StringVar(&factors, "factors", "", "comma-separated grid factors")
	cmd.Flags().StringVar(&by, "by", "", "stratifying factor")
	cmd.Flags().BoolVar(&contrasts, "contrasts", false, "compute pairwise contrasts")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "flip contrast direction")
	cmd.Flags().StringVar(&adjust, "adjust", "none", "p-value adjustment: none|bonferroni|holm|sidak|tukey")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "confidence level for intervals")
	cmd.MarkFlagRequired("factors")
	return cmd
}

func newSlopesCmd() *cobra.Command {
	var dataFile, outcome, terms, pred, modx, at string
	var jn bool
	var confidence float64

	cmd := &cobra.Command{
		Use:   "slopes",
		Short: "Simple slopes of a predictor at chosen moderator values",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := fitModel(dataFile, outcome, terms)
			if err != nil {
				return err
			}
			values, err := parseFloats(at)
			if err != nil {
				return err
			}
			tbl, err := analysis.SimpleSlopes(m, analysis.SlopesRequest{
				Predictor:     pred,
				Moderator:     modx,
				At:            values,
				Confidence:    confidence,
				JohnsonNeyman: jn,
			})
			if err != nil {
				return err
			}
			fmt.Println(render.Slopes(*tbl))
			return nil
		},
	}
	addModelFlags(cmd, &dataFile, &outcome, &terms)
	cmd.Flags().StringVar(&pred, "pred", "", "focal continuous predictor")
	cmd.Flags().StringVar(&modx, "modx", "", "continuous moderator")
	cmd.Flags().StringVar(&at, "at", "", "comma-separated moderator values (default mean, mean +/- 1 SD)")
	cmd.Flags().BoolVar(&jn, "jn", false, "report Johnson-Neyman bounds")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "confidence level for intervals")
	cmd.MarkFlagRequired("pred")
	cmd.MarkFlagRequired("modx")
	return cmd
}

func newRunCmd() *cobra.Command {
	var dataFile, vars, groupBy, outcome, terms, factors, by, adjust string
	var withVIF bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline as one batch, optionally persisting artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dataFile == "" {
				dataFile = cfg.Data.File
			}
			t, err := loadTable(dataFile)
			if err != nil {
				return err
			}

			logger := internal.NewDefaultLogger()
			var repo ports.ArtifactRepository
			if cfg.Database.URL != "" {
				db, err := sqlx.Connect("postgres", cfg.Database.URL)
				if err != nil {
					return fmt.Errorf("database connection failed: %w", err)
				}
				defer db.Close()
				if err := postgres.Migrate(db); err != nil {
					return err
				}
				repo = postgres.NewArtifactRepository(db)
			}

			req := app.AnalysisRequest{
				DatasetName: dataFile,
				Dataset:     t,
				Confidence:  cfg.Output.Confidence,
				WithVIF:     withVIF,
			}
			if vars != "" {
				req.Descriptives = &app.DescriptivesQuery{Vars: splitList(vars), GroupBy: splitList(groupBy)}
			}
			if outcome != "" {
				spec := analysis.ModelSpec{Outcome: outcome, Terms: parseTerms(terms)}
				req.Model = &spec
			}
			if factors != "" {
				req.EMMeans = []app.EMMQuery{{
					Factors:   splitList(factors),
					By:        by,
					Contrasts: &app.ContrastQuery{Adjust: analysis.Adjustment(adjust)},
					PlotTitle: fmt.Sprintf("%s by %s", outcome, factors),
				}}
			}

			service := app.NewAnalysisService(repo, logger)
			result, err := service.Run(context.Background(), req)
			if err != nil {
				return err
			}
			for _, a := range result.Artifacts {
				printArtifact(a.Payload)
			}
			fmt.Printf("run %s finished in %dms\n", result.RunID, result.RuntimeMs)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataFile, "data", "", "path to xlsx/csv dataset (default $DATA_FILE)")
	cmd.Flags().StringVar(&vars, "vars", "", "descriptive variables")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "descriptive grouping factors")
	cmd.Flags().StringVar(&outcome, "outcome", "", "model outcome")
	cmd.Flags().StringVar(&terms, "terms", "", "model terms, ':' marks interactions")
	cmd.Flags().StringVar(&factors, "factors", "", "marginal-means grid factors")
	cmd.Flags().StringVar(&by, "by", "", "stratifying factor")
	cmd.Flags().StringVar(&adjust, "adjust", "none", "contrast p adjustment")
	cmd.Flags().BoolVar(&withVIF, "vif", false, "report variance inflation factors")
	return cmd
}

func addModelFlags(cmd *cobra.Command, dataFile, outcome, terms *string) {
	cmd.Flags().StringVar(dataFile, "data", "", "path to xlsx/csv dataset")
	cmd.Flags().StringVar(outcome, "outcome", "", "outcome column")
	cmd.Flags().StringVar(terms, "terms", "", "comma-separated terms, ':' marks interactions")
	cmd.MarkFlagRequired("data")
	cmd.MarkFlagRequired("outcome")
	cmd.MarkFlagRequired("terms")
}

func loadTable(path string) (*table.Table, error) {
	if path == "" {
		return nil, fmt.Errorf("no dataset given: set --data or DATA_FILE")
	}
	return excel.NewDataReader(path).Read("")
}

func fitModel(dataFile, outcome, terms string) (*analysis.Model, error) {
	t, err := loadTable(dataFile)
	if err != nil {
		return nil, err
	}
	spec := analysis.ModelSpec{Outcome: outcome, Terms: parseTerms(terms)}
	return analysis.NewFitter().Fit(t, spec)
}

func parseTerms(s string) []analysis.Term {
	var terms []analysis.Term
	for _, tok := range splitList(s) {
		if strings.Contains(tok, ":") {
			terms = append(terms, analysis.Interact(splitOn(tok, ":")...))
		} else {
			terms = append(terms, analysis.Main(tok))
		}
	}
	return terms
}

func splitList(s string) []string {
	return splitOn(s, ",")
}

func splitOn(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, p := range splitList(s) {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid moderator value %q", p)
		}
		out = append(out, f)
	}
	return out, nil
}

func printArtifact(payload interface{}) {
	switch p := payload.(type) {
	case []report.DescriptiveRow:
		fmt.Println(render.Descriptives(p))
	case report.ModelSummary:
		fmt.Println(render.ModelSummary(p))
	case []report.MarginalMeanRow:
		fmt.Println(render.MarginalMeans(p))
	case []report.ContrastRow:
		fmt.Println(render.Contrasts(p))
	case *report.SlopesTable:
		fmt.Println(render.Slopes(*p))
	}
}
