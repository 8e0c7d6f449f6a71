package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/callgym/callgym-core/core/llms"
	"github.com/callgym/callgym-core/core/scenario"
	"github.com/callgym/callgym-core/core/transcript"
	"github.com/callgym/callgym-core/internal/metrics"
)

// DefaultTemperature keeps structured analysis output consistent across runs.
// Inherited product tuning; override through WithTemperature.
const DefaultTemperature = 0.3

// ErrParse is the single typed failure mode for untrusted generator output.
// Every decode problem — invalid JSON, wrong shape, schema mismatch — routes
// through it to the fallback constructor; there is no partial recovery.
var ErrParse = errors.New("analysis response did not match the report schema")

// TextGenerator is the capability the pipeline needs from a text generation
// provider: request in, raw text or failure out.
type TextGenerator interface {
	PromptJSON(ctx context.Context, prompt string, opts ...llms.StructuredPromptOption) (string, error)
}

// Pipeline produces a CoachingReport from a finished session. It never
// returns an error to its caller: any failure along the way resolves to the
// deterministic fallback report, deliberately trading precision for
// availability.
type Pipeline struct {
	generator   TextGenerator
	temperature float64
}

type PipelineOption func(*Pipeline)

// WithTemperature overrides the sampling temperature of the analysis request.
func WithTemperature(temperature float64) PipelineOption {
	return func(p *Pipeline) {
		p.temperature = temperature
	}
}

func NewPipeline(generator TextGenerator, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		generator:   generator,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analyze runs the full pipeline: deterministic prompt assembly, one
// structured generation call, strict decode, and normalization. The scenario
// and overrides snapshot are read-only throughout.
func (p *Pipeline) Analyze(
	ctx context.Context,
	turns []transcript.Turn,
	s scenario.Scenario,
	overrides scenario.GlobalOverrides,
) CoachingReport {
	ctx, span := tracer.Start(ctx, "analyze session")
	defer span.End()
	span.SetAttributes(
		attribute.String("scenario.id", s.ID),
		attribute.Int("transcript.turns", len(turns)),
	)

	prompt := buildPrompt(turns, s, overrides)

	content, err := p.generator.PromptJSON(ctx, prompt,
		llms.WithSystemPrompt(coachSystemPrompt),
		llms.WithTemperature(p.temperature),
		llms.WithOutputSchema("CoachingReport", CoachingReport{}),
	)
	if err != nil {
		span.RecordError(fmt.Errorf("analysis generation failed: %w", err))
		span.SetAttributes(attribute.Bool("report.fallback", true))
		metrics.RecordAnalysisFallback()
		return FallbackReport(s.Name)
	}

	report, err := decodeReport(content)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("report.fallback", true))
		metrics.RecordAnalysisFallback()
		return FallbackReport(s.Name)
	}

	span.SetAttributes(attribute.Int("report.overall_score", report.OverallScore))
	return report
}

// decodeReport strictly parses generated text into a CoachingReport. Content
// that parses but misses the drill contract is treated the same as invalid
// JSON; partially-trusted generative output has no reliable sub-field
// guarantees beyond "the whole object parsed and matched the schema".
func decodeReport(content string) (CoachingReport, error) {
	var report CoachingReport
	if err := json.Unmarshal([]byte(content), &report); err != nil {
		return CoachingReport{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	// Probe for overall_score presence separately: an omitted score defaults
	// to 50 rather than a misleading zero.
	var probe struct {
		OverallScore *int `json:"overall_score"`
	}
	if err := json.Unmarshal([]byte(content), &probe); err == nil && probe.OverallScore == nil {
		report.OverallScore = 50
	}

	if report.OverallScore < 0 || report.OverallScore > 100 {
		return CoachingReport{}, fmt.Errorf("%w: overall_score %d out of range", ErrParse, report.OverallScore)
	}
	if len(report.Drills) != 3 {
		return CoachingReport{}, fmt.Errorf("%w: expected 3 drills, got %d", ErrParse, len(report.Drills))
	}

	return report, nil
}
