package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// canonicalDocument is the stable, field-ordered projection of a Trade's
// terms hashed into ContractHash. Using a dedicated struct (rather than
// hashing Terms directly) keeps the hash stable even if Terms gains fields
// that should not affect already-signed contracts.
type canonicalDocument struct {
	TradeID         string             `json:"tradeId"`
	NegotiationID   string             `json:"negotiationId"`
	BuyerPartnerID  string             `json:"buyerPartnerId"`
	SellerPartnerID string             `json:"sellerPartnerId"`
	BuyerBranchID   string             `json:"buyerBranchId"`
	SellerBranchID  string             `json:"sellerBranchId"`
	Terms           PriceQuantityTerms `json:"priceQuantity"`
	Delivery        DeliveryTerms      `json:"delivery"`
	Payment         PaymentTerms       `json:"payment"`
	Quality         []QualityTerm      `json:"quality"`
	Inspection      InspectionTerms    `json:"inspection"`
	Legal           LegalTerms         `json:"legal"`
	Penalties       PenaltyTerms       `json:"penalties"`
}

// CanonicalBytes renders the deterministic byte representation of a trade's
// terms that ContractHash is computed over.
func CanonicalBytes(t *Trade) ([]byte, error) {
	doc := canonicalDocument{
		TradeID:         t.TradeID,
		NegotiationID:   t.NegotiationID,
		BuyerPartnerID:  t.BuyerPartnerID,
		SellerPartnerID: t.SellerPartnerID,
		BuyerBranchID:   t.BuyerBranchID,
		SellerBranchID:  t.SellerBranchID,
		Terms:           t.Terms.PriceQuantity,
		Delivery:        t.Terms.Delivery,
		Payment:         t.Terms.Payment,
		Quality:         t.Terms.Quality,
		Inspection:      t.Terms.Inspection,
		Legal:           t.Terms.Legal,
		Penalties:       t.Terms.Penalties,
	}
	return json.Marshal(doc)
}

// ComputeContractHash returns the hex-encoded SHA-256 digest of a trade's
// canonical document: contractHash = SHA-256(canonicalBytes).
func ComputeContractHash(t *Trade) (string, error) {
	b, err := CanonicalBytes(t)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
