// Command blockpaint simulates block canvas programs and optimizes their cut offsets.
//
// Optimize a program against a target image:
//
//	blockpaint [flags] <program> <optimized-out|-> <target-image> [<initial-state>]
//
// Render a program to <program>.png:
//
//	blockpaint [flags] <program> [<initial-state>]
//
// Initial states are JSON files or CSV/XLSX block tables.
//
// Build:
//
//	go build -o blockpaint ./cmd/blockpaint
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/piwi3910/blockpaint/internal/canvas"
	"github.com/piwi3910/blockpaint/internal/engine"
	"github.com/piwi3910/blockpaint/internal/export"
	"github.com/piwi3910/blockpaint/internal/importer"
	"github.com/piwi3910/blockpaint/internal/model"
	"github.com/piwi3910/blockpaint/internal/palette"
	"github.com/piwi3910/blockpaint/internal/project"
)

var errUsage = errors.New("wrong number of arguments")

// options holds the parsed command line.
type options struct {
	configPath string
	logLevel   string
	logJSON    bool

	radius      int
	colorSearch bool
	colorRadius int
	workers     int
	rounds      int
	compare     bool

	reportPath  string
	xlsxPath    string
	dxfPath     string
	palettePath string
	recordPath  string
	stateOut    string

	set  map[string]bool // Flags given explicitly
	args []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "blockpaint:", err)
		}
		os.Exit(1)
	}
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: map[string]bool{}}
	defaults := model.DefaultSearchSettings()

	fs := flag.NewFlagSet("blockpaint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage:")
		fmt.Fprintln(stderr, "  blockpaint [flags] <program> <optimized-out|-> <target-image> [<initial-state>]")
		fmt.Fprintln(stderr, "  blockpaint [flags] <program> [<initial-state>]")
		fmt.Fprintln(stderr, "flags:")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", project.DefaultConfigPath(), "config file (.yaml, .yml or .json)")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&opts.logJSON, "log-json", false, "log as JSON")

	fs.IntVar(&opts.radius, "radius", defaults.Radius, "cut offset search radius")
	fs.BoolVar(&opts.colorSearch, "color-search", defaults.ColorSearch, "also perturb color instructions")
	fs.IntVar(&opts.colorRadius, "color-radius", defaults.ColorRadius, "color channel search radius")
	fs.IntVar(&opts.workers, "workers", defaults.Workers, "parallel candidate evaluations")
	fs.IntVar(&opts.rounds, "rounds", defaults.Rounds, "maximum search rounds")
	fs.BoolVar(&opts.compare, "compare", false, "compare alternative search settings")

	fs.StringVar(&opts.reportPath, "report", "", "write a PDF report")
	fs.StringVar(&opts.xlsxPath, "xlsx", "", "write an XLSX workbook")
	fs.StringVar(&opts.dxfPath, "dxf", "", "write the final block layout as DXF")
	fs.StringVar(&opts.palettePath, "palette", "", "write the target palette swatch as PNG")
	fs.StringVar(&opts.recordPath, "record", "", "write a JSON run record")
	fs.StringVar(&opts.stateOut, "state-out", "", "write the final canvas as initial-state JSON")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	opts.args = fs.Args()

	switch len(opts.args) {
	case 1, 2, 3, 4:
	default:
		fs.Usage()
		return nil, errUsage
	}
	return opts, nil
}

// loadConfig reads the config file and applies explicit flag overrides.
func loadConfig(opts *options) (model.AppConfig, error) {
	cfg, err := project.LoadAppConfig(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if opts.set["log-level"] {
		cfg.LogLevel = opts.logLevel
	}
	if opts.set["log-json"] {
		cfg.LogJSON = opts.logJSON
	}
	if opts.set["radius"] {
		cfg.Search.Radius = opts.radius
	}
	if opts.set["color-search"] {
		cfg.Search.ColorSearch = opts.colorSearch
	}
	if opts.set["color-radius"] {
		cfg.Search.ColorRadius = opts.colorRadius
	}
	if opts.set["workers"] {
		cfg.Search.Workers = opts.workers
	}
	if opts.set["rounds"] {
		cfg.Search.Rounds = opts.rounds
	}
	cfg.Search = cfg.Search.Normalized()
	return cfg, nil
}

func newLogger(cfg model.AppConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	}
	return slog.New(slog.NewTextHandler(w, hopts)), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	if len(opts.args) <= 2 {
		return render(opts, cfg, logger)
	}
	return optimize(ctx, opts, cfg, logger, stdout)
}

// loadState reads an initial state from a JSON file or a block table. An
// empty path yields a blank canvas of the given size.
func loadState(path string, width, height int) (model.CanvasState, error) {
	switch {
	case path == "":
		return model.BlankState(width, height), nil
	case importer.IsTable(path):
		res := importer.Import(path)
		if err := res.Err(); err != nil {
			return model.CanvasState{}, fmt.Errorf("%s: %w", path, err)
		}
		return res.State, nil
	default:
		return project.LoadInitialState(path)
	}
}

func optimize(ctx context.Context, opts *options, cfg model.AppConfig, logger *slog.Logger, stdout io.Writer) error {
	programPath, outPath, targetPath := opts.args[0], opts.args[1], opts.args[2]
	statePath := ""
	if len(opts.args) == 4 {
		statePath = opts.args[3]
	}

	prog, err := project.LoadProgram(programPath)
	if err != nil {
		return err
	}
	target, err := project.LoadTarget(targetPath)
	if err != nil {
		return err
	}
	state, err := loadState(statePath, target.Rect.Dx(), target.Rect.Dy())
	if err != nil {
		return err
	}
	exec, err := engine.NewExecutor(target, state)
	if err != nil {
		return err
	}

	var out engine.Outcome
	if opts.compare {
		results, cerr := engine.CompareScenarios(ctx, exec, engine.BuildDefaultScenarios(cfg.Search), prog, logger)
		for _, r := range results {
			logger.Info("scenario result",
				"scenario", r.Scenario.Name,
				"total", r.TotalCost,
				"saved", r.Saved,
				"improvements", r.Improvements,
				"evaluations", r.Evaluations,
			)
		}
		if len(results) > 0 {
			out = results[0].Outcome
		}
		err = cerr
	} else {
		out, err = engine.New(exec, cfg.Search, logger).Optimize(ctx, prog)
	}
	if err != nil {
		if ctx.Err() == nil || out.Best.Program == nil {
			return err
		}
		logger.Warn("search interrupted, writing best program so far", "error", err)
	}

	if outPath == "-" {
		if err := project.WriteResult(stdout, out.Best); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	} else if err := project.SaveResult(outPath, out.Best); err != nil {
		return err
	}

	final, res := exec.Replay(out.Best.Program, 0)
	if res.Failed() {
		logger.Warn("best program fails, skipping canvas artifacts",
			"index", res.Failure.Index,
			"command", res.Failure.Command.String(),
			"error", res.Failure.Err,
		)
		final = nil
	}
	return writeArtifacts(opts, cfg, logger, runArtifacts{
		outcome:     out,
		final:       final,
		target:      target,
		programPath: programPath,
		targetPath:  targetPath,
	})
}

// runArtifacts is what the optional outputs are built from.
type runArtifacts struct {
	outcome     engine.Outcome
	final       *canvas.Canvas // nil when the best program fails
	target      *image.NRGBA
	programPath string
	targetPath  string
}

func writeArtifacts(opts *options, cfg model.AppConfig, logger *slog.Logger, a runArtifacts) error {
	if opts.stateOut != "" && a.final != nil {
		if err := project.SaveInitialState(opts.stateOut, a.final.State()); err != nil {
			return err
		}
		logger.Info("state written", "path", opts.stateOut, "blocks", a.final.Len())
	}
	if opts.dxfPath != "" && a.final != nil {
		if err := export.ExportDXF(opts.dxfPath, a.final); err != nil {
			return err
		}
		logger.Info("layout written", "path", opts.dxfPath)
	}
	if opts.recordPath != "" {
		rec := project.NewRunRecord(a.outcome, cfg.Search, a.programPath, a.targetPath)
		if err := project.SaveRunRecord(opts.recordPath, rec); err != nil {
			return err
		}
		logger.Info("run record written", "path", opts.recordPath)
	}

	if opts.palettePath == "" && opts.reportPath == "" && opts.xlsxPath == "" {
		return nil
	}

	method, err := palette.ParseMethod(cfg.PaletteMethod)
	if err != nil {
		return err
	}
	entries := palette.Extract(a.target, cfg.PaletteSize, method)
	palette.SortByBrightness(entries)

	if opts.palettePath != "" {
		swatch, err := palette.Swatch(entries, 32)
		if err != nil {
			return err
		}
		if err := project.SavePNG(opts.palettePath, swatch); err != nil {
			return err
		}
		logger.Info("palette written", "path", opts.palettePath, "colors", len(entries))
	}

	report := export.RunReport{
		Title:    a.programPath,
		Outcome:  a.outcome,
		Settings: cfg.Search,
		Target:   a.target,
		Final:    a.final,
		Palette:  entries,
	}
	if a.final == nil {
		return nil
	}
	if opts.reportPath != "" {
		if err := export.ExportPDF(opts.reportPath, report); err != nil {
			return err
		}
		logger.Info("report written", "path", opts.reportPath)
	}
	if opts.xlsxPath != "" {
		if err := export.ExportWorkbook(opts.xlsxPath, report); err != nil {
			return err
		}
		logger.Info("workbook written", "path", opts.xlsxPath)
	}
	return nil
}

// render executes the program on the initial state and writes the raster
// next to the program as <program>.png.
func render(opts *options, cfg model.AppConfig, logger *slog.Logger) error {
	programPath := opts.args[0]
	statePath := ""
	if len(opts.args) == 2 {
		statePath = opts.args[1]
	}

	prog, err := project.LoadProgram(programPath)
	if err != nil {
		return err
	}
	state, err := loadState(statePath, cfg.CanvasWidth, cfg.CanvasHeight)
	if err != nil {
		return err
	}
	// Only the raster is wanted; a transparent target keeps the executor happy.
	exec, err := engine.NewExecutor(image.NewNRGBA(image.Rect(0, 0, state.Width, state.Height)), state)
	if err != nil {
		return err
	}

	final, res := exec.Replay(prog, 0)
	if res.Failed() {
		return fmt.Errorf("render %s: %w", programPath, res.Failure)
	}

	pngPath := programPath + ".png"
	if err := project.SavePNG(pngPath, final.Image()); err != nil {
		return err
	}
	logger.Info("rendered", "path", pngPath, "instructions", len(prog), "program_cost", res.ProgramCost)

	if opts.stateOut != "" {
		if err := project.SaveInitialState(opts.stateOut, final.State()); err != nil {
			return err
		}
	}
	if opts.dxfPath != "" {
		return export.ExportDXF(opts.dxfPath, final)
	}
	return nil
}
