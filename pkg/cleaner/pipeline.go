// pkg/cleaner/pipeline.go
package cleaner

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Pipeline runs a sequence of Steps over a Frame
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a Pipeline from steps
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Add appends a step
func (p *Pipeline) Add(step Step) *Pipeline {
	p.steps = append(p.steps, step)
	return p
}

// StepNames lists the step names in execution order
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Run applies every step in order, stopping at the first error or when ctx is done
func (p *Pipeline) Run(ctx context.Context, f *Frame, rec *Recorder, logger *zap.Logger) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		before := rec.Total()
		if err := step.Apply(ctx, f, rec); err != nil {
			return fmt.Errorf("step %s: %w", step.Name(), err)
		}
		logger.Debug("Applied cleaning step",
			zap.String("step", step.Name()),
			zap.Int("rows", f.Nrow()),
			zap.Int("operations", rec.Total()-before))
	}
	return nil
}
