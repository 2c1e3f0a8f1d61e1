package domain

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// RuleProgram is one weighted rule score factor, expressed as a data-driven
// expr program (github.com/expr-lang/expr) rather than hardcoded Go control
// flow. New rules ship as data — a config or DB row — not a redeploy.
type RuleProgram struct {
	Name       string
	Weight     float64 // fraction of the rule score, e.g. 0.40
	Expression string  // expr program returning a float64 in [0,100]
	compiled   *vm.Program
}

// Compile parses the expr source once; call it when a RuleProgram is loaded
// from config so later invocations only Run the compiled program.
func (r *RuleProgram) Compile() error {
	program, err := expr.Compile(r.Expression, expr.Env(map[string]any{}), expr.AllowUndefinedVariables(), expr.AsFloat64())
	if err != nil {
		return fmt.Errorf("compiling rule %q: %w", r.Name, err)
	}
	r.compiled = program
	return nil
}

func (r *RuleProgram) run(env map[string]any) (float64, error) {
	if r.compiled == nil {
		if err := r.Compile(); err != nil {
			return 0, err
		}
	}
	out, err := expr.Run(r.compiled, env)
	if err != nil {
		return 0, err
	}
	v, _ := out.(float64)
	return v, nil
}

// Blocker is a hard blocker predicate: when it evaluates true the score is
// overridden to FAIL regardless of the weighted rule/ML score.
type Blocker struct {
	Name       string
	Reason     string
	Expression string // expr program returning bool
	compiled   *vm.Program
}

func (b *Blocker) Compile() error {
	program, err := expr.Compile(b.Expression, expr.Env(map[string]any{}), expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return fmt.Errorf("compiling blocker %q: %w", b.Name, err)
	}
	b.compiled = program
	return nil
}

func (b *Blocker) run(env map[string]any) (bool, error) {
	if b.compiled == nil {
		if err := b.Compile(); err != nil {
			return false, err
		}
	}
	out, err := expr.Run(b.compiled, env)
	if err != nil {
		return false, err
	}
	v, _ := out.(bool)
	return v, nil
}

// DefaultRuleSet is the default rule score aggregate: credit
// utilization/exposure (40%), counterparty rating/vintage (30%), payment /
// delivery / dispute history (30%).
func DefaultRuleSet() []*RuleProgram {
	return []*RuleProgram{
		{
			Name:       "credit_utilization_exposure",
			Weight:     0.40,
			Expression: `(1 - creditUtilization) * 100`,
		},
		{
			Name:   "counterparty_rating_vintage",
			Weight: 0.30,
			Expression: `min(counterpartyRating + (counterpartyVintageYears >= 3 ? 5.0 : 0.0), 100.0)`,
		},
		{
			Name:   "payment_delivery_dispute_history",
			Weight: 0.30,
			Expression: `max(0.0, (paymentHistoryScore*0.4 + deliveryHistoryScore*0.4 + (100-disputeHistoryScore)*0.2))`,
		},
	}
}

// DefaultBlockers are the expr-evaluable hard blockers. Circular trading is
// intentionally absent here — it needs a graph walk over persisted open
// positions, which isn't expr-friendly; it's checked separately via
// CircularTradeChecker after these run.
func DefaultBlockers() []*Blocker {
	return []*Blocker{
		{
			Name:       "insider_trading",
			Reason:     "matching parties share an ultimate beneficial owner",
			Expression: `buyerUBO != "" && buyerUBO == sellerUBO`,
		},
		{
			Name:       "wash_trading",
			Reason:     "same party on both sides of the trade",
			Expression: `buyerPartnerID != "" && buyerPartnerID == sellerPartnerID`,
		},
		{
			Name:       "invalid_capability",
			Reason:     "actor lacks the capability required for this action",
			Expression: `!hasCapability`,
		},
		{
			Name:       "sanctions_hit",
			Reason:     "counterparty matched a sanctions list",
			Expression: `sanctionsHit`,
		},
		{
			Name:       "missing_license",
			Reason:     "required export/import license is absent",
			Expression: `requiresExportLicense && !hasExportLicense`,
		},
	}
}

// Evaluator is the stateless hybrid evaluator: `evaluate(context) ->
// {status, score, ruleScore, mlScore, breakdown, explanation}`.
type Evaluator struct {
	rules    []*RuleProgram
	blockers []*Blocker
	ml       MLOpinion // optional; nil degrades to rule-only
	circular CircularTradeChecker
	lookbackDays int
}

func NewEvaluator(rules []*RuleProgram, blockers []*Blocker, ml MLOpinion, circular CircularTradeChecker, lookbackDays int) *Evaluator {
	return &Evaluator{rules: rules, blockers: blockers, ml: ml, circular: circular, lookbackDays: lookbackDays}
}

// Evaluate runs the full pipeline for one context. The context is a tagged
// variant; the type switch below covers entity, bilateral and transaction
// explicitly and panics on an unhandled case so new variants can't silently
// skip evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, c Context) (*Result, error) {
	env, hardBlockEnv, err := e.buildEnv(ctx, c)
	if err != nil {
		// A blocker evaluator exception is fail-closed.
		return &Result{Status: StatusFail, BlockReason: "blocker evaluation error: " + err.Error()}, nil
	}

	for _, b := range e.blockers {
		triggered, err := b.run(hardBlockEnv)
		if err != nil {
			return &Result{Status: StatusFail, BlockReason: "blocker evaluation error: " + err.Error()}, nil
		}
		if triggered {
			return &Result{
				Status:      StatusFail,
				BlockReason: b.Reason,
				Breakdown:   []Factor{{Factor: b.Name, Impact: -100, Value: "blocked"}},
				Explanation: "blocked by hard rule: " + b.Name,
			}, nil
		}
	}

	if e.circular != nil {
		if bc, ok := c.(BilateralContext); ok {
			hasCycle, err := e.circular.HasCycle(ctx, bc.BuyerPartnerID, bc.SellerPartnerID, e.lookbackDays)
			if err != nil {
				// Circular trading is a blocker category; fail-closed on error.
				return &Result{Status: StatusFail, BlockReason: "circular trade check failed: " + err.Error()}, nil
			}
			if hasCycle {
				return &Result{
					Status:      StatusFail,
					BlockReason: "circular trading: open positions would form a cycle",
					Breakdown:   []Factor{{Factor: "circular_trading", Impact: -100, Value: "cycle_detected"}},
					Explanation: "blocked by hard rule: circular_trading",
				}, nil
			}
		}
	}

	ruleScore, breakdown, err := e.runRules(env)
	if err != nil {
		// Non-blocker exception: reported as WARN with the exception encoded.
		return &Result{
			Status:      StatusWarn,
			Score:       WarnThreshold,
			RuleScore:   WarnThreshold,
			Breakdown:   []Factor{{Factor: "rule_engine_error", Impact: 0, Value: err.Error()}},
			Explanation: "rule evaluation degraded: " + err.Error(),
		}, nil
	}

	result := &Result{RuleScore: ruleScore, Breakdown: breakdown}
	finalScore := ruleScore

	if e.ml != nil {
		mlScore, importances, err := e.ml.Score(ctx, c)
		if err != nil {
			// Missing/failing ML degrades to rule-only with a notice in Explanation,
			// not a failure.
			result.Explanation = "ML opinion unavailable, degraded to rule-only: " + err.Error()
		} else {
			result.MLScore = &mlScore
			finalScore = 0.70*ruleScore + 0.30*mlScore
			result.Breakdown = append(result.Breakdown, importances...)
		}
	}

	finalScore = round(finalScore)
	result.Score = finalScore
	result.Status = classify(finalScore)
	if result.Explanation == "" {
		result.Explanation = fmt.Sprintf("rule/ML hybrid score %.0f (%s)", finalScore, result.Status)
	}
	return result, nil
}

func (e *Evaluator) runRules(env map[string]any) (float64, []Factor, error) {
	var total float64
	breakdown := make([]Factor, 0, len(e.rules))
	for _, r := range e.rules {
		v, err := r.run(env)
		if err != nil {
			return 0, nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		contribution := v * r.Weight
		total += contribution
		breakdown = append(breakdown, Factor{Factor: r.Name, Impact: contribution, Value: fmt.Sprintf("%.2f", v)})
	}
	return total, breakdown, nil
}

func classify(score float64) Status {
	switch {
	case score >= PassThreshold:
		return StatusPass
	case score >= WarnThreshold:
		return StatusWarn
	default:
		return StatusFail
	}
}

func round(f float64) float64 {
	if f < 0 {
		return 0
	}
	return float64(int64(f + 0.5))
}

// buildEnv flattens a Context into the map expr programs evaluate against.
// Blockers and rules share most fields but blockers additionally need
// hasCapability, which only makes sense for an entity-shaped action check.
func (e *Evaluator) buildEnv(_ context.Context, c Context) (ruleEnv, blockerEnv map[string]any, err error) {
	switch v := c.(type) {
	case EntityContext:
		env := map[string]any{
			"creditUtilization":        toF(v.CreditUtilization),
			"creditExposure":           toF(v.CreditExposure),
			"counterpartyRating":       toF(v.CounterpartyRating),
			"counterpartyVintageYears": v.CounterpartyVintageYears,
			"paymentHistoryScore":      toF(v.PaymentHistoryScore),
			"deliveryHistoryScore":     toF(v.DeliveryHistoryScore),
			"disputeHistoryScore":      toF(v.DisputeHistoryScore),
			"buyerUBO":                 "",
			"sellerUBO":                "",
			"buyerPartnerID":           v.PartnerID,
			"sellerPartnerID":          "",
			"hasCapability":            contains(v.Capabilities, v.RequiredCapability),
			"sanctionsHit":             v.SanctionsHit,
			"requiresExportLicense":    v.RequiresExportLicense,
			"hasExportLicense":         v.HasExportLicense,
		}
		return env, env, nil
	case BilateralContext:
		env := map[string]any{
			"creditUtilization":        toF(v.Buyer.CreditUtilization),
			"creditExposure":           toF(v.Buyer.CreditExposure),
			"counterpartyRating":       toF(v.Seller.CounterpartyRating),
			"counterpartyVintageYears": v.Seller.CounterpartyVintageYears,
			"paymentHistoryScore":      toF(v.Seller.PaymentHistoryScore),
			"deliveryHistoryScore":     toF(v.Seller.DeliveryHistoryScore),
			"disputeHistoryScore":      toF(v.Seller.DisputeHistoryScore),
			"buyerUBO":                 v.BuyerUBO,
			"sellerUBO":                v.SellerUBO,
			"buyerPartnerID":           v.BuyerPartnerID,
			"sellerPartnerID":          v.SellerPartnerID,
			"hasCapability":            contains(v.BuyerCapabilities, "BUY") && contains(v.SellerCapabilities, "SELL"),
			"sanctionsHit":             v.Buyer.SanctionsHit || v.Seller.SanctionsHit,
			"requiresExportLicense":    v.Buyer.RequiresExportLicense || v.Seller.RequiresExportLicense,
			"hasExportLicense":         v.Buyer.HasExportLicense && v.Seller.HasExportLicense,
		}
		return env, env, nil
	case TransactionContext:
		env := map[string]any{
			"creditUtilization":        0.0,
			"counterpartyRating":       100.0,
			"counterpartyVintageYears": 99,
			"paymentHistoryScore":      100.0,
			"deliveryHistoryScore":     100.0,
			"disputeHistoryScore":      0.0,
			"buyerUBO":                 "",
			"sellerUBO":                "",
			"buyerPartnerID":           "",
			"sellerPartnerID":          "",
			"hasCapability":            true,
			"sanctionsHit":             false,
			"requiresExportLicense":    false,
			"hasExportLicense":         true,
		}
		return env, env, nil
	default:
		panic(fmt.Sprintf("unhandled risk context kind: %T", c))
	}
}

func contains(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}

type decimalLike interface{ InexactFloat64() float64 }

func toF(d decimalLike) float64 { return d.InexactFloat64() }
