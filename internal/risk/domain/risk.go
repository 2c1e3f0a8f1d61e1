package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Status is the PASS/WARN/FAIL gate a risk evaluation resolves to.
type Status string

const (
	StatusPass Status = "PASS"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

const (
	PassThreshold = 80
	WarnThreshold = 60
)

// Factor is one ranked contributor to the score, returned in Explanation.
type Factor struct {
	Factor string  `json:"factor"`
	Impact float64 `json:"impact"`
	Value  string  `json:"value"`
}

// Result is the public contract's return shape:
// `evaluate(context) -> {status, score, ruleScore, mlScore, breakdown, explanation}`.
type Result struct {
	Status      Status    `json:"status"`
	Score       float64   `json:"score"`
	RuleScore   float64   `json:"ruleScore"`
	MLScore     *float64  `json:"mlScore,omitempty"`
	Breakdown   []Factor  `json:"breakdown"`
	Explanation string    `json:"explanation"`
	BlockReason string    `json:"blockReason,omitempty"`
}

// Assessment is the persisted record of one evaluate() call, kept for audit
// and for re-validating bilateral candidates cheaply.
type Assessment struct {
	ID            uint64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	AssessmentID  string  `gorm:"column:assessment_id;type:varchar(64);uniqueIndex;not null" json:"assessmentId"`
	SubjectType   string  `gorm:"column:subject_type;type:varchar(20);index;not null" json:"subjectType"` // entity|bilateral|transaction
	SubjectID     string  `gorm:"column:subject_id;type:varchar(64);index;not null" json:"subjectId"`
	Status        Status  `gorm:"column:status;type:varchar(10);not null" json:"status"`
	Score         decimal.Decimal `gorm:"column:score;type:decimal(5,2);not null" json:"score"`
	BreakdownJSON []byte  `gorm:"column:breakdown;type:json" json:"-"`
}

// EvaluatorRepository persists Assessment rows for audit/history.
type EvaluatorRepository interface {
	Save(ctx context.Context, a *Assessment) error
	GetLatest(ctx context.Context, subjectType, subjectID string) (*Assessment, error)
}

// CircularTradeChecker answers whether engaging buyerID/sellerID would close
// a cycle of open positions within the configured lookback window; the
// default implementation does a simple-cycle DFS, see infrastructure/rules.
type CircularTradeChecker interface {
	HasCycle(ctx context.Context, buyerPartnerID, sellerPartnerID string, lookbackDays int) (bool, error)
}

// MLOpinion is the pluggable AI orchestrator's decision interface. Absence
// of an implementation (or a failing one) degrades the evaluator to
// rule-only, never a hard failure.
type MLOpinion interface {
	Score(ctx context.Context, c Context) (score float64, featureImportances []Factor, err error)
}
