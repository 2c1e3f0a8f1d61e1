// Package rules implements the concrete adapters the risk evaluator's
// interfaces need but that aren't expressible as expr programs: the
// circular-trading graph walk.
package rules

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// PositionEdge is one open-position buyer->seller edge within the lookback
// window, sourced from ACTIVE+ trades.
type PositionEdge struct {
	BuyerPartnerID  string
	SellerPartnerID string
}

// positionEdgeModel is the read-model row the query below scans; trades are
// the source of truth (see internal/trade), this is a narrow projection.
type positionEdgeModel struct {
	BuyerPartnerID  string `gorm:"column:buyer_partner_id"`
	SellerPartnerID string `gorm:"column:seller_partner_id"`
}

// CircularTradeChecker implements domain.CircularTradeChecker via a
// simple-cycle DFS over the directed graph of open-position edges built from
// the last lookbackDays days of ACTIVE+ trades (the composition root passes
// tradecore.risk_lookback_days, 30 in the shipped config).
type CircularTradeChecker struct {
	db *gorm.DB
}

func NewCircularTradeChecker(db *gorm.DB) *CircularTradeChecker {
	return &CircularTradeChecker{db: db}
}

// HasCycle returns true if adding a buyer->seller edge would close a cycle:
// i.e. seller (transitively, via buyer->seller chains) already has an open
// position back to buyer.
func (c *CircularTradeChecker) HasCycle(ctx context.Context, buyerPartnerID, sellerPartnerID string, lookbackDays int) (bool, error) {
	if buyerPartnerID == "" || sellerPartnerID == "" || buyerPartnerID == sellerPartnerID {
		return false, nil
	}
	since := time.Now().AddDate(0, 0, -lookbackDays)

	var edges []positionEdgeModel
	err := c.db.WithContext(ctx).
		Table("trades").
		Select("buyer_partner_id, seller_partner_id").
		Where("status IN ? AND created_at >= ?", []string{"ACTIVE", "IN_TRANSIT", "DELIVERED", "QUALITY_CHECK", "COMPLETED"}, since).
		Find(&edges).Error
	if err != nil {
		return false, err
	}

	adjacency := make(map[string][]string, len(edges))
	for _, e := range edges {
		adjacency[e.BuyerPartnerID] = append(adjacency[e.BuyerPartnerID], e.SellerPartnerID)
	}
	// Adding buyer->seller: a cycle exists if seller can already reach buyer.
	adjacency[buyerPartnerID] = append(adjacency[buyerPartnerID], sellerPartnerID)

	visited := map[string]bool{}
	var dfs func(node, target string) bool
	dfs = func(node, target string) bool {
		if node == target {
			return true
		}
		if visited[node] {
			return false
		}
		visited[node] = true
		for _, next := range adjacency[node] {
			if dfs(next, target) {
				return true
			}
		}
		return false
	}
	return dfs(sellerPartnerID, buyerPartnerID), nil
}
