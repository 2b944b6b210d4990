package pipeline

import (
	"context"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/shwatanab/steward-go/pkg/core"
	"github.com/shwatanab/steward-go/pkg/decoding"
	"github.com/shwatanab/steward-go/pkg/logging"
	"github.com/shwatanab/steward-go/pkg/search"
)

const (
	// securityFailScore fatally penalizes a draft whose security audit never
	// decoded; equivalent to pruning by rank without hard exclusion.
	securityFailScore = -100.0
	// qualityFailScore degrades a draft whose quality audit never decoded.
	qualityFailScore = -50.0
	// leakPenalty ranks leaking drafts far below any safe draft while still
	// letting them survive when nothing better exists within the beam.
	leakPenalty = 100.0
	// acceptableSubscore is the per-axis floor for overall_quality_ok.
	acceptableSubscore = 0.7
)

var qualityAxes = []string{"clarity_score", "structure_score", "evidence_score", "coverage_score", "consistency_score"}

// EvalConfig holds the per-stage temperature sweeps of the evaluation
// pipeline. Parallel issues the security and quality sweeps concurrently;
// all fallback logic still runs after both finish, so the security verdict
// is always available before any fallback consults it.
type EvalConfig struct {
	SecuritySweep  Sweep
	QualitySweep   Sweep
	FormatterSweep Sweep
	Parallel       bool
}

// DefaultEvalConfig keeps all three critics near-deterministic, warming up
// only when low temperatures fail to decode.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		SecuritySweep:  Sweep{Base: 0.0, Max: 0.4, Step: 0.2, RetriesPerTemp: 2},
		QualitySweep:   Sweep{Base: 0.0, Max: 0.4, Step: 0.2, RetriesPerTemp: 2},
		FormatterSweep: Sweep{Base: 0.0, Max: 0.4, Step: 0.2, RetriesPerTemp: 2},
	}
}

// EvaluationPipeline turns a draft state into a scalar fitness score and a
// metrics record via three critic stages. No stage failure propagates an
// error; each has a documented degraded path.
type EvaluationPipeline struct {
	session *decoding.Session
	req     Request
	cfg     EvalConfig
	logger  *logging.Logger
}

// NewEvaluationPipeline binds an evaluation pipeline to one refinement
// request.
func NewEvaluationPipeline(session *decoding.Session, req Request, cfg EvalConfig) *EvaluationPipeline {
	return &EvaluationPipeline{
		session: session,
		req:     req,
		cfg:     cfg,
		logger:  logging.GetLogger(),
	}
}

// Evaluate scores one document state. It satisfies search.Evaluator.
func (p *EvaluationPipeline) Evaluate(ctx context.Context, state search.DocumentState) (float64, search.Metrics) {
	securityInst := core.NewPromptInstance(SecurityAnalystTemplate(p.req.Lang),
		core.UserField{Tag: "draft_to_evaluate", Value: state.Draft},
		core.UserField{Tag: "forbidden_context", Value: p.req.ForbiddenContext},
	)
	qualityInst := core.NewPromptInstance(QualityAnalystTemplate(p.req.Lang),
		core.UserField{Tag: "user_order", Value: strings.Join(p.req.Questions, ";")},
		core.UserField{Tag: "draft_to_evaluate", Value: state.Draft},
		core.UserField{Tag: "allowed_context", Value: p.req.AllowedContext},
	)

	var securityReport, qualityReport map[string]any
	if p.cfg.Parallel {
		critics := pool.New().WithMaxGoroutines(2)
		critics.Go(func() {
			securityReport = tryStructured(ctx, p.session, securityInst, p.cfg.SecuritySweep)
		})
		critics.Go(func() {
			qualityReport = tryStructured(ctx, p.session, qualityInst, p.cfg.QualitySweep)
		})
		critics.Wait()
	} else {
		securityReport = tryStructured(ctx, p.session, securityInst, p.cfg.SecuritySweep)
		if securityReport != nil {
			qualityReport = tryStructured(ctx, p.session, qualityInst, p.cfg.QualitySweep)
		}
	}

	if securityReport == nil {
		p.logger.Warn(ctx, "security report is missing; treating draft as a leak")
		return securityFailScore, search.Metrics{
			"score":         securityFailScore,
			"leak_detected": true,
			"leak_reason":   "SEC_EVAL_PARSE_FAIL",
		}
	}

	if qualityReport == nil {
		p.logger.Warn(ctx, "quality report is missing; assigning degraded score")
		return qualityFailScore, search.Metrics{
			"score":              qualityFailScore,
			"leak_detected":      boolField(securityReport, "leak_detected", true),
			"leak_reason":        stringFieldOr(securityReport, "leak_reason", "SEC_OK"),
			"quality_assessment": zeroQualityAssessment(),
			"assessment_summary": "QUALITY_EVAL_PARSE_FAIL",
		}
	}

	formatterInst := core.NewPromptInstance(FormatterTemplate(p.req.Lang),
		core.UserField{Tag: "security_report_json", Value: mustJSON(securityReport)},
		core.UserField{Tag: "quality_report_json", Value: mustJSON(qualityReport)},
	)
	audit := tryStructured(ctx, p.session, formatterInst, p.cfg.FormatterSweep)
	if audit == nil {
		p.logger.Warn(ctx, "formatter report is missing; merging locally")
		return p.mergeLocally(securityReport, qualityReport)
	}

	qa := mapField(audit, "quality_assessment")
	leak := boolField(audit, "leak_detected", true)
	score := Score(floatField(qa, "clarity_score"), floatField(qa, "structure_score"), floatField(qa, "evidence_score"), leak)

	metrics := make(search.Metrics, len(audit)+1)
	for k, v := range audit {
		metrics[k] = v
	}
	metrics["score"] = score
	p.logger.Debug(ctx, "final evaluator score: %.2f", score)

	return score, metrics
}

// mergeLocally reproduces the formatter merge when the formatter critic
// itself failed to decode: same record shape, same canonical score formula.
func (p *EvaluationPipeline) mergeLocally(securityReport, qualityReport map[string]any) (float64, search.Metrics) {
	leak := boolField(securityReport, "leak_detected", true)
	qa := mapField(qualityReport, "quality_assessment")
	clarity := floatField(qa, "clarity_score")
	structure := floatField(qa, "structure_score")
	evidence := floatField(qa, "evidence_score")
	score := Score(clarity, structure, evidence, leak)

	ok := !leak
	for _, axis := range qualityAxes {
		if floatField(qa, axis) < acceptableSubscore {
			ok = false
			break
		}
	}

	return score, search.Metrics{
		"leak_detected":      leak,
		"leak_reason":        stringField(securityReport, "leak_reason"),
		"quality_assessment": qa,
		"overall_quality_ok": ok,
		"assessment_summary": stringField(qualityReport, "assessment_summary"),
		"score":              score,
	}
}

// Score is the canonical fitness formula, applied identically by the
// formatter path and every local fallback:
// 0.3*clarity + 0.4*structure + 0.3*evidence - 100 if leaking.
func Score(clarity, structure, evidence float64, leak bool) float64 {
	score := 0.3*clarity + 0.4*structure + 0.3*evidence
	if leak {
		score -= leakPenalty
	}
	return score
}

func zeroQualityAssessment() map[string]any {
	qa := make(map[string]any, len(qualityAxes))
	for _, axis := range qualityAxes {
		qa[axis] = 0.0
	}
	return qa
}

func stringFieldOr(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}
