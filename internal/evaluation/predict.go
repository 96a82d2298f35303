package evaluation

import (
	"context"
	"fmt"
	"time"

	"hservice/internal/dialogue"
	"hservice/internal/models"
	"hservice/internal/worker"

	"github.com/rs/zerolog"
)

const DefaultWorkers = 4

// Prediction is the classification of one instruction. Err is set when the
// processor failed; the other fields are then empty.
type Prediction struct {
	Intent  models.Intent
	Thought string
	Err     error
}

type Predictor struct {
	processor dialogue.Processor
	workers   int
	logger    zerolog.Logger
}

type Option func(*Predictor)

func WithWorkers(n int) Option {
	return func(p *Predictor) { p.workers = n }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Predictor) { p.logger = logger }
}

func NewPredictor(processor dialogue.Processor, opts ...Option) *Predictor {
	p := &Predictor{
		processor: processor,
		workers:   DefaultWorkers,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

// Predict classifies every instruction as a single-message transcript. The
// result has one entry per instruction, in input order.
func (p *Predictor) Predict(ctx context.Context, instructions []string) []Prediction {
	results := make([]Prediction, len(instructions))
	d := worker.NewDispatcher(ctx, p.workers, p.workers)
	start := time.Now()
	for i, instruction := range instructions {
		d.Submit(func(ctx context.Context) {
			results[i] = p.classify(ctx, instruction)
			if err := results[i].Err; err != nil {
				p.logger.Warn().Err(err).Int("row", i).Msg("prediction failed")
			}
		})
	}
	d.Wait()
	p.logger.Info().
		Int("rows", len(instructions)).
		Int("workers", p.workers).
		Dur("elapsed", time.Since(start)).
		Msg("predictions done")
	return results
}

func (p *Predictor) classify(ctx context.Context, instruction string) Prediction {
	if err := ctx.Err(); err != nil {
		return Prediction{Err: err}
	}
	turn, err := p.processor.GenerateResponse(ctx, []models.Message{models.UserMessage(instruction)})
	if err != nil {
		return Prediction{Err: err}
	}
	return Prediction{Intent: turn.Intent, Thought: turn.Thought}
}

// Annotate predicts the instruction column of ds and stores the results in the
// predicted_intent and thought_process columns. Failed rows keep an empty
// prediction and the error text as thought. It returns the number of failed rows.
func (p *Predictor) Annotate(ctx context.Context, ds *Dataset) (int, error) {
	instructions, err := ds.Values(ColumnInstruction)
	if err != nil {
		return 0, err
	}
	preds := p.Predict(ctx, instructions)

	predicted := make([]string, len(preds))
	thoughts := make([]string, len(preds))
	failed := 0
	for i, pred := range preds {
		if pred.Err != nil {
			failed++
			thoughts[i] = fmt.Sprintf("error: %v", pred.Err)
			continue
		}
		predicted[i] = string(pred.Intent)
		thoughts[i] = pred.Thought
	}
	if err := ds.SetColumn(ColumnPredicted, predicted); err != nil {
		return failed, err
	}
	if err := ds.SetColumn(ColumnThought, thoughts); err != nil {
		return failed, err
	}
	return failed, nil
}
