package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/blockpaint/internal/model"
)

// Improvement records one accepted perturbation.
type Improvement struct {
	Round    int
	Index    int
	Before   model.Command
	After    model.Command
	FromCost int64
	ToCost   int64
}

// Outcome is the result of an optimization run.
type Outcome struct {
	RunID        string
	Baseline     Result // The input program as given
	Best         Result
	Improvements []Improvement
	Evaluations  int // Programs executed, baseline included
	Rounds       int // Rounds actually run
	Elapsed      time.Duration
}

// Saved is how much total cost the run removed from the baseline.
func (o Outcome) Saved() int64 {
	if o.Baseline.Failed() {
		return 0
	}
	return o.Baseline.TotalCost - o.Best.TotalCost
}

// Optimizer hill-climbs a program by perturbing one instruction at a time
// and keeping strictly better variants.
type Optimizer struct {
	exec     *Executor
	settings model.SearchSettings
	logger   *slog.Logger
}

// New creates an optimizer. A nil logger discards log output.
func New(exec *Executor, settings model.SearchSettings, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Optimizer{exec: exec, settings: settings.Normalized(), logger: logger}
}

// Settings returns the normalized search settings.
func (o *Optimizer) Settings() model.SearchSettings {
	return o.settings
}

// Optimize scans the program position by position. At each cut (and, when
// enabled, color) instruction every neighbour is spliced between the best
// prefix found so far and the untouched suffix, and executed on a fresh
// canvas. The first strictly cheaper candidate in neighbour order becomes the
// new best. The returned Best never costs more than Baseline.
//
// Cancelling ctx stops the search; the outcome found so far is returned with
// the context error.
func (o *Optimizer) Optimize(ctx context.Context, prog model.Program) (Outcome, error) {
	started := time.Now()
	out := Outcome{RunID: uuid.New().String()[:8]}

	out.Baseline = o.exec.Execute(prog.Clone(), 0)
	out.Evaluations = 1
	// The baseline total is the reference every candidate reports against.
	start := out.Baseline.TotalCost
	out.Baseline.InitialCost = start
	out.Best = out.Baseline

	o.logger.Info("baseline executed",
		"run", out.RunID,
		"instructions", len(prog),
		"program_cost", out.Baseline.ProgramCost,
		"image_diff", out.Baseline.ImageDiffCost,
		"total", out.Baseline.TotalCost,
		"failed", out.Baseline.Failed(),
	)
	if out.Baseline.Failed() {
		o.logger.Warn("baseline program fails",
			"run", out.RunID,
			"index", out.Baseline.Failure.Index,
			"command", out.Baseline.Failure.Command.String(),
			"kind", out.Baseline.Failure.Kind.String(),
			"error", out.Baseline.Failure.Err,
		)
	}

	for round := 1; round <= o.settings.Rounds; round++ {
		out.Rounds = round
		before := len(out.Improvements)
		if err := o.scan(ctx, round, start, &out); err != nil {
			out.Elapsed = time.Since(started)
			return out, err
		}
		if len(out.Improvements) == before {
			break
		}
	}

	out.Elapsed = time.Since(started)
	o.logger.Info("optimization finished",
		"run", out.RunID,
		"rounds", out.Rounds,
		"evaluations", out.Evaluations,
		"improvements", len(out.Improvements),
		"start", start,
		"best", out.Best.TotalCost,
		"elapsed", out.Elapsed,
	)
	return out, nil
}

// scan runs one pass over the program of out.Best.
func (o *Optimizer) scan(ctx context.Context, round int, start int64, out *Outcome) error {
	orig := out.Best.Program
	n := len(orig)

	for i := range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		cands := o.neighbours(out.Best.Program, i)
		if len(cands) == 0 {
			continue
		}

		progs := make([]model.Program, len(cands))
		for j, cmd := range cands {
			progs[j] = model.Splice(out.Best.Program[:i], cmd, orig[i+1:])
		}
		results, err := o.evaluate(ctx, progs, start)
		out.Evaluations += len(results)
		if err != nil {
			return err
		}

		for j, res := range results {
			if res.TotalCost >= out.Best.TotalCost {
				continue
			}
			o.logger.Info("new best score found",
				"run", out.RunID,
				"round", round,
				"index", i,
				"len", n,
				"move", cands[j].Type().String(),
				"from", out.Best.TotalCost,
				"to", res.TotalCost,
				"start", start,
			)
			out.Improvements = append(out.Improvements, Improvement{
				Round:    round,
				Index:    i,
				Before:   out.Best.Program[i],
				After:    cands[j],
				FromCost: out.Best.TotalCost,
				ToCost:   res.TotalCost,
			})
			out.Best = res
		}
	}
	return nil
}

// neighbours returns the candidate replacements for instruction i of prog.
func (o *Optimizer) neighbours(prog model.Program, i int) []model.Command {
	switch m := prog[i].(type) {
	case model.LineCutMove:
		return lineCutNeighbours(m, o.settings.Radius)
	case model.PointCutMove:
		return pointCutNeighbours(m, o.settings.Radius)
	case model.ColorMove:
		if !o.settings.ColorSearch {
			return nil
		}
		return colorNeighbours(m, o.settings.ColorRadius, o.colorHint(prog[:i], m.BlockID))
	default:
		return nil
	}
}

// colorHint returns the mean target color under the block as it stands
// before the color instruction, or nil if the prefix fails.
func (o *Optimizer) colorHint(prefix model.Program, id string) *model.Color {
	c, res := o.exec.Replay(prefix, 0)
	if res.Failed() {
		return nil
	}
	b, ok := c.Block(id)
	if !ok {
		return nil
	}
	mean := MeanColor(o.exec.Target(), b)
	return &mean
}

// evaluate executes every candidate with at most Workers in flight. Results
// are indexed like progs so selection does not depend on scheduling.
func (o *Optimizer) evaluate(ctx context.Context, progs []model.Program, start int64) ([]Result, error) {
	results := make([]Result, len(progs))
	if o.settings.Workers == 1 {
		for j, p := range progs {
			results[j] = o.exec.Execute(p, start)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.settings.Workers)
	for j, p := range progs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[j] = o.exec.Execute(p, start)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
