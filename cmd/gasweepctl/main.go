package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gasweep/internal/model"
	"gasweep/internal/problem"
	"gasweep/internal/stats"
	"gasweep/internal/storage"
	gaapi "gasweep/pkg/gasweep"
)

const (
	artifactsDir = "artifacts"
	exportsDir   = "exports"
	defaultDB    = "gasweep.db"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "sweep":
		return runSweep(ctx, args[1:])
	case "summarize":
		return runSummarize(ctx, args[1:])
	case "experiments":
		return runExperiments(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// clientFlags are shared by every command that opens a client.
type clientFlags struct {
	storeKind    *string
	dbPath       *string
	artifactsDir *string
	logLevel     *string
}

func registerClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		storeKind:    fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:       fs.String("db-path", defaultDB, "sqlite database path"),
		artifactsDir: fs.String("artifacts", artifactsDir, "artifacts directory"),
		logLevel:     fs.String("log-level", "info", "log level: debug|info|warn|error"),
	}
}

func (f clientFlags) open() (*gaapi.Client, error) {
	logger, err := newLogger(*f.logLevel)
	if err != nil {
		return nil, err
	}
	return gaapi.New(gaapi.Options{
		StoreKind:    *f.storeKind,
		DBPath:       *f.dbPath,
		ArtifactsDir: *f.artifactsDir,
		Logger:       logger,
	})
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	mode := fs.String("mode", problem.ModeQueens, "problem mode: queens|map")
	n := fs.Int("n", 0, "board size for queens, region count for map (0 uses the default)")
	colors := fs.Int("colors", 0, "color count for map (0 uses the default)")
	adjacency := fs.String("adjacency", "", "map adjacency as region:neighbor,neighbor;... (empty uses the built-in map)")
	population := fs.Int("pop", 50, "population size")
	generations := fs.Int("gens", 100, "generation count")
	crossover := fs.Float64("crossover", 0.9, "crossover rate")
	mutation := fs.Float64("mutation", model.DefaultMutationRate, "mutation rate")
	elite := fs.Int("elite", model.DefaultEliteSize, "elite size")
	seed := fs.Int64("seed", 1, "rng seed")
	history := fs.Bool("history", false, "record per-generation diagnostics")
	common := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	adj, err := parseAdjacency(*adjacency)
	if err != nil {
		return err
	}
	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, gaapi.RunRequest{
		Problem:        gaapi.ProblemRequest{Mode: *mode, N: *n, Colors: *colors, Adjacency: adj},
		CrossoverRate:  *crossover,
		PopulationSize: *population,
		Generations:    *generations,
		MutationRate:   *mutation,
		EliteSize:      *elite,
		Seed:           *seed,
		TrackHistory:   *history,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s mode=%s found=%t generation_found=%s generations=%d state=%s time=%.3f\n",
		summary.RunID,
		summary.Problem.Mode,
		summary.Result.Found,
		formatGeneration(summary.Result.GenerationFound),
		summary.Result.Generations,
		summary.State,
		summary.Seconds,
	)
	for _, d := range summary.Result.Diagnostics {
		fmt.Printf("generation=%d best=%.6f mean=%.6f min=%.6f\n", d.Generation, d.BestFitness, d.MeanFitness, d.MinFitness)
	}
	return nil
}

func runSweep(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional sweep config TOML path")
	mode := fs.String("mode", problem.ModeQueens, "problem mode: queens|map")
	n := fs.Int("n", 0, "board size for queens, region count for map (0 uses the default)")
	colors := fs.Int("colors", 0, "color count for map (0 uses the default)")
	adjacency := fs.String("adjacency", "", "map adjacency as region:neighbor,neighbor;...")
	crossoverRates := fs.String("crossover-rates", "", "comma separated crossover rates")
	popSizes := fs.String("pop-sizes", "", "comma separated population sizes")
	gensList := fs.String("gens-list", "", "comma separated generation budgets")
	mutationRates := fs.String("mutation-rates", "", "comma separated mutation rates")
	eliteSizes := fs.String("elite-sizes", "", "comma separated elite sizes")
	runs := fs.Int("runs", 100, "runs per configuration")
	workers := fs.Int("workers", 1, "parallel runs (1 is sequential)")
	seed := fs.Int64("seed", 1, "base rng seed")
	backfill := fs.String("backfill", "max", "AES backfill policy: max|none")
	notes := fs.String("notes", "", "free-form experiment notes")
	workbook := fs.Bool("xlsx", false, "also write results.xlsx")
	common := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadOrDefaultSweepConfig(*configPath)
	if err != nil {
		return err
	}
	if err := overrideFromFlags(&cfg, setFlags, map[string]any{
		"mode":            *mode,
		"n":               *n,
		"colors":          *colors,
		"adjacency":       *adjacency,
		"crossover-rates": *crossoverRates,
		"pop-sizes":       *popSizes,
		"gens-list":       *gensList,
		"mutation-rates":  *mutationRates,
		"elite-sizes":     *eliteSizes,
		"runs":            *runs,
		"workers":         *workers,
		"seed":            *seed,
		"backfill":        *backfill,
		"notes":           *notes,
		"xlsx":            *workbook,
	}); err != nil {
		return err
	}
	req, err := cfg.request()
	if err != nil {
		return err
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	result, err := client.Sweep(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("sweep completed experiment_id=%s mode=%s configs=%d runs=%d artifacts=%s\n",
		result.ExperimentID,
		cfg.Mode,
		len(req.Grid),
		len(result.Records),
		result.ArtifactsDir,
	)
	return stats.WriteSummaryTable(os.Stdout, result.Summary)
}

func runSummarize(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	in := fs.String("in", "", "runs table to summarize (.csv or .xlsx)")
	experimentID := fs.String("experiment-id", "", "summarize a stored experiment instead of a file")
	backfill := fs.String("backfill", "max", "AES backfill policy: max|none")
	out := fs.String("out", "", "optional summary CSV output path")
	common := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*in == "") == (*experimentID == "") {
		return errors.New("summarize requires exactly one of --in or --experiment-id")
	}
	policy, err := stats.ParseBackfill(*backfill)
	if err != nil {
		return err
	}

	var rows []model.SummaryRow
	if *in != "" {
		records, err := readRunsTable(*in)
		if err != nil {
			return err
		}
		rows = stats.Summarize(records, stats.SummaryOptions{Backfill: policy})
	} else {
		client, err := common.open()
		if err != nil {
			return err
		}
		defer func() {
			_ = client.Close()
		}()
		rows, err = client.Summary(ctx, *experimentID, policy)
		if err != nil {
			return err
		}
	}

	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		if err := stats.WriteSummaryCSV(f, rows); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("summary written to=%s groups=%d\n", filepath.Clean(*out), len(rows))
	}
	return stats.WriteSummaryTable(os.Stdout, rows)
}

func runExperiments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("experiments", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max experiments to list")
	common := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit < 0 {
		return errors.New("limit must be >= 0")
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	experiments, err := client.Experiments(ctx)
	if err != nil {
		return err
	}
	if *limit > 0 && len(experiments) > *limit {
		experiments = experiments[:*limit]
	}
	if len(experiments) == 0 {
		fmt.Println("no experiments")
		return nil
	}
	for _, exp := range experiments {
		fmt.Printf("experiment_id=%s mode=%s progress=%s configs=%d runs_per_config=%d seed=%d started_at=%s\n",
			exp.ID,
			exp.Problem.Mode,
			exp.ProgressFlag,
			len(exp.Grid),
			exp.RunsPerConfig,
			exp.Seed,
			exp.StartedAtUTC,
		)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	experimentID := fs.String("experiment-id", "", "experiment id")
	latest := fs.Bool("latest", false, "export the most recent experiment")
	format := fs.String("format", stats.FormatCSV, "export format: csv|xlsx")
	outDir := fs.String("out", exportsDir, "export output directory")
	backfill := fs.String("backfill", "max", "AES backfill policy: max|none")
	common := registerClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *experimentID != "" && *latest {
		return errors.New("use either --experiment-id or --latest, not both")
	}
	if *experimentID == "" && !*latest {
		return errors.New("export requires --experiment-id or --latest")
	}
	policy, err := stats.ParseBackfill(*backfill)
	if err != nil {
		return err
	}

	client, err := common.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, gaapi.ExportRequest{
		ExperimentID: *experimentID,
		Latest:       *latest,
		Format:       strings.ToLower(*format),
		OutDir:       *outDir,
		Backfill:     policy,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported experiment_id=%s to=%s\n", exported.ExperimentID, exported.Path)
	return nil
}

func readRunsTable(path string) ([]model.RunRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return stats.ReadWorkbookRuns(path)
	}
	records, ok, err := stats.ReadRunsFile(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("runs file not found: %s", path)
	}
	return records, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func formatGeneration(gen *int) string {
	if gen == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *gen)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: gasweepctl <run|sweep|summarize|experiments|export> [flags]", msg)
}
