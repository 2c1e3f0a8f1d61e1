// Package domain implements the risk and compliance evaluator: a stateless
// hybrid rule+ML evaluator polymorphic over three context shapes. The
// context is a tagged variant (an interface with an unexported marker
// method) so a type switch missing a case is caught by a default branch
// rather than silently falling through.
package domain

import "github.com/shopspring/decimal"

// Context is the sealed tagged-variant the evaluator dispatches on.
type Context interface {
	contextKind() string
}

// EntityContext evaluates one requirement or availability being published.
type EntityContext struct {
	PartnerID         string
	Capabilities      []string
	RequiredCapability string // BUY or SELL
	CreditUtilization  decimal.Decimal // fraction in [0,1]
	CreditExposure     decimal.Decimal
	CounterpartyRating decimal.Decimal // [0,100]
	CounterpartyVintageYears int
	PaymentHistoryScore   decimal.Decimal // [0,100]
	DeliveryHistoryScore  decimal.Decimal // [0,100]
	DisputeHistoryScore   decimal.Decimal // [0,100], higher is worse (dispute rate)
	SanctionsHit          bool
	RequiresExportLicense bool
	HasExportLicense      bool
}

func (EntityContext) contextKind() string { return "entity" }

// BilateralContext evaluates a candidate match: both sides, commodity, and
// the estimated transaction value.
type BilateralContext struct {
	BuyerPartnerID       string
	SellerPartnerID      string
	BuyerUBO             string // ultimate beneficial owner identifier (PAN or equivalent)
	SellerUBO            string
	BuyerCapabilities    []string
	SellerCapabilities   []string
	CommodityID          string
	EstimatedValue       decimal.Decimal
	Buyer                EntityContext
	Seller               EntityContext
	HasOpenCircularPath  bool // precomputed by the circular-trade checker
}

func (BilateralContext) contextKind() string { return "bilateral" }

// TransactionContext evaluates payment/contract/shipment concerns. Out of
// this evaluator's core scope, but the interface is uniform so a future
// downstream module can reuse it without a new contract.
type TransactionContext struct {
	TradeID        string
	PaymentMethod  string
	ContractValue  decimal.Decimal
}

func (TransactionContext) contextKind() string { return "transaction" }
