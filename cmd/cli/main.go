package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gosobol/adapters/excel"
	"gosobol/adapters/report"
	"gosobol/domain/conductance"
	"gosobol/domain/core"
	"gosobol/domain/sensitivity"
	"gosobol/internal"
	"gosobol/internal/config"
	"gosobol/internal/container"
	"gosobol/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "gosobol",
		Short: "Sobol sensitivity analysis of atmospheric conductance",
		Long: `Sample a Saltelli design, map it into the configured scenarios, evaluate
the aerodynamic conductance model and rank parameter influence with
first-order, total-effect and second-order Sobol indices.

Settings come from the environment (and .env); flags override them.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newSampleCmd(),
		newEvaluateCmd(),
		newScenariosCmd(),
		newRunsCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadContainer reads configuration, lets apply override it and builds the container
func loadContainer(apply func(*config.Config)) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	logger := internal.NewLoggerTo(os.Stderr, internal.ParseLogLevel(cfg.Runtime.LogLevel))
	return container.New(cfg, logger)
}

type analysisFlags struct {
	samples       int
	seed          int64
	scheme        string
	sampler       string
	resamples     int
	confidence    float64
	nonFinite     string
	offset        float64
	scenarios     []string
	scenariosFile string
	sequential    bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	d := config.Default().Analysis
	cmd.Flags().IntVarP(&f.samples, "samples", "n", d.SampleCount, "Base sample count N")
	cmd.Flags().Int64Var(&f.seed, "seed", d.Seed, "Random seed for deterministic operations")
	cmd.Flags().StringVar(&f.scheme, "scheme", d.Scheme, "Design scheme: second|first-total")
	cmd.Flags().StringVar(&f.sampler, "sampler", d.Sampler, "Sampler: random|sobol")
	cmd.Flags().IntVar(&f.resamples, "resamples", d.Resamples, "Bootstrap resamples")
	cmd.Flags().Float64Var(&f.confidence, "confidence", d.Confidence, "Confidence level of the bootstrap intervals")
	cmd.Flags().StringVar(&f.nonFinite, "non-finite", d.NonFinitePolicy, "Non-finite output policy: fail|propagate")
	cmd.Flags().Float64Var(&f.offset, "offset", d.MeasurementOffset, "Measurement height above the canopy in m")
	cmd.Flags().StringSliceVar(&f.scenarios, "scenario", nil, "Scenario ids to run (repeatable, default all)")
	cmd.Flags().StringVar(&f.scenariosFile, "scenarios-file", "", "YAML file with additional scenarios")
	cmd.Flags().BoolVar(&f.sequential, "sequential", false, "Run scenarios one after another")
}

// apply copies only the flags the user set onto cfg
func (f *analysisFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	a := &cfg.Analysis
	if changed("samples") {
		a.SampleCount = f.samples
	}
	if changed("seed") {
		a.Seed = f.seed
	}
	if changed("scheme") {
		a.Scheme = strings.ToLower(f.scheme)
	}
	if changed("sampler") {
		a.Sampler = strings.ToLower(f.sampler)
	}
	if changed("resamples") {
		a.Resamples = f.resamples
	}
	if changed("confidence") {
		a.Confidence = f.confidence
	}
	if changed("non-finite") {
		a.NonFinitePolicy = strings.ToLower(f.nonFinite)
	}
	if changed("offset") {
		a.MeasurementOffset = f.offset
	}
	if changed("scenario") {
		a.Scenarios = f.scenarios
	}
	if changed("scenarios-file") {
		a.ScenariosFile = f.scenariosFile
	}
	if changed("sequential") {
		cfg.Runtime.ParallelScenarios = !f.sequential
	}
}

func newRunCmd() *cobra.Command {
	var flags analysisFlags
	var xlsx, csvDir, markdown, html, archive string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full sensitivity analysis",
		Long: `Sample the design once, run every scenario against it and print the ranked
index tables. Optional exports and the run archive are written only when the
whole run succeeds.

Example: gosobol run -n 1000 --seed 42 --xlsx indices.xlsx --archive runs.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(func(cfg *config.Config) {
				flags.apply(cmd, cfg)
				changed := cmd.Flags().Changed
				if changed("xlsx") {
					cfg.Output.XLSX = xlsx
				}
				if changed("csv-dir") {
					cfg.Output.CSVDir = csvDir
				}
				if changed("markdown") {
					cfg.Output.Markdown = markdown
				}
				if changed("html") {
					cfg.Output.HTML = html
				}
				if changed("archive") {
					cfg.Archive.DatabaseURL = archive
				}
			})
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			res, err := c.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.RenderTerminal(res.Report))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "Write an xlsx workbook to this path")
	cmd.Flags().StringVar(&csvDir, "csv-dir", "", "Write CSV index tables into this directory")
	cmd.Flags().StringVar(&markdown, "markdown", "", "Write a markdown report to this path")
	cmd.Flags().StringVar(&html, "html", "", "Write an HTML report to this path")
	cmd.Flags().StringVar(&archive, "archive", "", "Archive database: sqlite path or postgres URL")
	return cmd
}

func newSampleCmd() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "sample [output-file]",
		Short: "Draw a unit design and export it",
		Long: `Draw the Saltelli design for the configured sample count and seed and write
the evaluation matrix, one labelled row per model evaluation. The format
follows the extension: .xlsx or CSV.

Example: gosobol sample design.csv -n 256 --sampler sobol`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(func(cfg *config.Config) { flags.apply(cmd, cfg) })
			if err != nil {
				return err
			}
			req, err := c.AnalysisRequest()
			if err != nil {
				return err
			}
			design, err := c.Sampler.Sample(cmd.Context(), ports.SampleRequest{
				N:      req.SampleCount,
				Dim:    sensitivity.Dimension,
				Seed:   req.Seed,
				Scheme: req.Scheme,
				Kind:   req.Sampler,
			})
			if err != nil {
				return err
			}
			if err := excel.WriteDesign(args[0], design); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows (%s, fingerprint %s) to %s\n",
				design.Rows(), design.Scheme(), design.Fingerprint().Short(), args[0])
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newEvaluateCmd() *cobra.Command {
	var offset float64
	var sheet string

	cmd := &cobra.Command{
		Use:   "evaluate [parameter-file]",
		Short: "Evaluate conductance for every row of a parameter file",
		Long: `Read windspeed, height, displacement_scalar and roughness_scalar columns
from a CSV or xlsx file and print the aerodynamic conductance of each row in mm/s.

Example: gosobol evaluate params.csv --offset 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := excel.NewDataReader(args[0], sheet).ReadData()
			if err != nil {
				return err
			}
			rows, err := excel.ParameterMatrix(data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "row,conductance_mm_s")
			for i, v := range conductance.EvaluateRows(rows, offset) {
				fmt.Fprintf(out, "%d,%s\n", i, report.FormatFloat(v))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&offset, "offset", conductance.DefaultMeasurementOffset, "Measurement height above the canopy in m")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read (xlsx only, default first)")
	return cmd
}

func newScenariosCmd() *cobra.Command {
	var scenariosFile string

	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the available scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(func(cfg *config.Config) {
				if cmd.Flags().Changed("scenarios-file") {
					cfg.Analysis.ScenariosFile = scenariosFile
				}
			})
			if err != nil {
				return err
			}
			scenarios, err := c.Scenarios()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, sc := range scenarios {
				fmt.Fprintf(out, "%s\t%s\n", sc.ID, sc.Description)
				for _, d := range strings.Split(sc.Summary(), "; ") {
					fmt.Fprintf(out, "\t%s\n", d)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenariosFile, "scenarios-file", "", "YAML file with additional scenarios")
	return cmd
}

func newRunsCmd() *cobra.Command {
	var archive string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived runs",
	}
	cmd.PersistentFlags().StringVar(&archive, "archive", "", "Archive database: sqlite path or postgres URL")

	withArchive := func(cmd *cobra.Command, fn func(ctx context.Context, ledger ports.LedgerReaderPort) error) error {
		c, err := loadContainer(func(cfg *config.Config) {
			if cmd.Flags().Changed("archive") {
				cfg.Archive.DatabaseURL = archive
			}
		})
		if err != nil {
			return err
		}
		defer c.Shutdown(context.Background())

		ledger, err := c.RequireArchive(cmd.Context())
		if err != nil {
			return err
		}
		return fn(cmd.Context(), ledger)
	}

	var seed int64
	var scheme string
	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(cmd, func(ctx context.Context, ledger ports.LedgerReaderPort) error {
				filters := ports.RunFilters{Scheme: scheme, Limit: limit, Offset: offset}
				if cmd.Flags().Changed("seed") {
					filters.Seed = &seed
				}
				manifests, err := ledger.ListRuns(ctx, filters)
				if err != nil {
					return err
				}
				if len(manifests) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No archived runs")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.RenderRunList(manifests))
				return nil
			})
		},
	}
	list.Flags().Int64Var(&seed, "seed", 0, "Only runs with this seed")
	list.Flags().StringVar(&scheme, "scheme", "", "Only runs with this scheme")
	list.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	list.Flags().IntVar(&offset, "offset", 0, "Runs to skip")

	var asJSON bool
	show := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show the manifest and index tables of an archived run",
		Long: `Show the manifest and index tables of an archived run.

With --json only the manifest is printed, as a JSON document that can be
fed back into a replay.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			return withArchive(cmd, func(ctx context.Context, ledger ports.LedgerReaderPort) error {
				m, err := ledger.GetRunManifest(ctx, runID)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(m)
				}
				rows, err := ledger.GetRunIndices(ctx, runID)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), report.RenderArchivedRun(m, rows))
				return nil
			})
		},
	}

	show.Flags().BoolVar(&asJSON, "json", false, "Print the manifest as JSON")

	cmd.AddCommand(list, show)
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var archive string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply and report run archive migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(func(cfg *config.Config) {
				if cmd.Flags().Changed("archive") {
					cfg.Archive.DatabaseURL = archive
				}
			})
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			a, err := c.RequireArchive(cmd.Context())
			if err != nil {
				return err
			}
			status, err := a.Migrations(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range status {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", s.Version, state)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&archive, "archive", "", "Archive database: sqlite path or postgres URL")
	return cmd
}
