// Package sla compares one month's quality summary against the previous
// month's baseline and produces an explainable compliance verdict.
package sla

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xtxerr/clickdq/internal/config"
	"github.com/xtxerr/clickdq/internal/errors"
	"github.com/xtxerr/clickdq/internal/logging"
	"github.com/xtxerr/clickdq/internal/store"
)

// Rule names identify breached rules in a verdict.
const (
	RuleVolumeDrop         = "volume_drop"
	RuleNullRateRegression = "null_rate_regression"
	RuleSchemaRegression   = "schema_regression"
	RuleMinRows            = "min_rows"
)

// Thresholds configure the evaluator. Zero values fall back to defaults.
type Thresholds struct {
	// VolumeDrop is the maximum tolerated fractional row-count drop
	// versus the baseline month.
	VolumeDrop float64

	// NullRateDelta is the maximum tolerated null-rate increase versus
	// the baseline month.
	NullRateDelta float64

	// MinRows is the minimum expected row count for the current month,
	// evaluated independently of the baseline.
	MinRows int64
}

// FromConfig builds Thresholds from the SLA configuration section.
func FromConfig(cfg config.SLAConfig) Thresholds {
	return Thresholds{
		VolumeDrop:    cfg.VolumeDropThreshold,
		NullRateDelta: cfg.NullRateDeltaThreshold,
		MinRows:       cfg.MinRows,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	if t.VolumeDrop <= 0 {
		t.VolumeDrop = config.DefaultVolumeDropThreshold
	}
	if t.NullRateDelta <= 0 {
		t.NullRateDelta = config.DefaultNullRateDeltaThreshold
	}
	return t
}

// Outcome is the overall verdict status.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"

	// OutcomeInsufficientBaseline: no prior-month summary exists, so the
	// month is neither a pass nor a fail.
	OutcomeInsufficientBaseline Outcome = "insufficient_baseline"
)

// Breach is one violated rule with the measured value and its threshold,
// enabling reproducible, explainable alerts.
type Breach struct {
	Rule      string  `json:"rule"`
	Measured  float64 `json:"measured"`
	Threshold float64 `json:"threshold"`
}

func (b Breach) String() string {
	return fmt.Sprintf("%s: measured %.4f > threshold %.4f", b.Rule, b.Measured, b.Threshold)
}

// Verdict is the result of evaluating one month against its baseline.
type Verdict struct {
	Month      string  `json:"month"`
	PriorMonth string  `json:"prior_month"`
	Outcome    Outcome `json:"outcome"`

	// Deltas between the months.
	VolumeDrop    float64 `json:"volume_drop"`
	NullRateDelta float64 `json:"null_rate_delta"`

	Breaches []Breach `json:"breaches,omitempty"`
}

// Passed reports whether the verdict is an overall pass.
func (v *Verdict) Passed() bool {
	return v.Outcome == OutcomePass
}

// Evaluator produces verdicts from stored summaries.
type Evaluator struct {
	store *store.Store
	log   *slog.Logger
}

// New creates an evaluator backed by st.
func New(st *store.Store) *Evaluator {
	return &Evaluator{
		store: st,
		log:   logging.Component("sla"),
	}
}

// EvaluateMonth loads the month's summary and its baseline from the store
// and evaluates the rules.
//
// ErrBaselineMissing is returned together with an insufficient_baseline
// verdict when the prior month has no summary: the first-ever month is
// reported, not judged. A missing current summary is a plain not-found
// error - validation has to run first.
func (e *Evaluator) EvaluateMonth(ctx context.Context, month string, thresholds Thresholds) (*Verdict, error) {
	current, err := e.store.GetSummary(ctx, month)
	if err != nil {
		return nil, err
	}

	prior, err := store.PrevMonth(month)
	if err != nil {
		return nil, err
	}

	baseline, err := e.store.GetSummary(ctx, prior)
	if errors.IsNotFound(err) {
		verdict := &Verdict{
			Month:      month,
			PriorMonth: prior,
			Outcome:    OutcomeInsufficientBaseline,
		}
		e.log.Warn("no baseline summary", "month", month, "prior_month", prior)
		return verdict, errors.Wrapf(errors.ErrBaselineMissing, "prior month %s", prior)
	}
	if err != nil {
		return nil, err
	}

	verdict := Evaluate(current, baseline, thresholds)
	e.logVerdict(verdict)
	return verdict, nil
}

// Evaluate applies the SLA rules to a current summary and its baseline.
// Each rule is independently evaluable; any breach fails the month.
func Evaluate(current, baseline *store.Summary, thresholds Thresholds) *Verdict {
	t := thresholds.withDefaults()

	verdict := &Verdict{
		Month:      current.LoadMonth,
		PriorMonth: baseline.LoadMonth,
		Outcome:    OutcomePass,
	}

	if baseline.RowCount > 0 {
		verdict.VolumeDrop = float64(baseline.RowCount-current.RowCount) / float64(baseline.RowCount)
	}
	verdict.NullRateDelta = current.NullRate - baseline.NullRate

	if verdict.VolumeDrop > t.VolumeDrop {
		verdict.Breaches = append(verdict.Breaches, Breach{
			Rule:      RuleVolumeDrop,
			Measured:  verdict.VolumeDrop,
			Threshold: t.VolumeDrop,
		})
	}

	if verdict.NullRateDelta > t.NullRateDelta {
		verdict.Breaches = append(verdict.Breaches, Breach{
			Rule:      RuleNullRateRegression,
			Measured:  verdict.NullRateDelta,
			Threshold: t.NullRateDelta,
		})
	}

	if baseline.SchemaValid && !current.SchemaValid {
		verdict.Breaches = append(verdict.Breaches, Breach{
			Rule:      RuleSchemaRegression,
			Measured:  0,
			Threshold: 0,
		})
	}

	if t.MinRows > 0 && current.RowCount < t.MinRows {
		verdict.Breaches = append(verdict.Breaches, Breach{
			Rule:      RuleMinRows,
			Measured:  float64(current.RowCount),
			Threshold: float64(t.MinRows),
		})
	}

	if len(verdict.Breaches) > 0 {
		verdict.Outcome = OutcomeFail
	}

	return verdict
}

func (e *Evaluator) logVerdict(v *Verdict) {
	args := []any{
		"month", v.Month,
		"prior_month", v.PriorMonth,
		"outcome", string(v.Outcome),
		"volume_drop", v.VolumeDrop,
		"null_rate_delta", v.NullRateDelta,
	}
	if v.Passed() {
		e.log.Info("sla pass", args...)
		return
	}
	for _, b := range v.Breaches {
		args = append(args, "breach", b.String())
	}
	e.log.Warn("sla fail", args...)
}
