// Package domain holds the partner/location directory that trade address
// selection reads from. Partner identity and capability data are external;
// this package models only the minimal branch directory needed to rank
// delivery addresses.
package domain

import "context"

// Branch is one registered delivery/collection location a partner exposes.
type Branch struct {
	BranchID     string  `json:"branchId" gorm:"column:branch_id;primaryKey;type:varchar(64)"`
	PartnerID    string  `json:"partnerId" gorm:"column:partner_id;type:varchar(64);index;not null"`
	CommodityID  string  `json:"commodityId,omitempty" gorm:"column:commodity_id;type:varchar(64);index"`
	State        string  `json:"state" gorm:"column:state;type:varchar(64)"`
	City         string  `json:"city" gorm:"column:city;type:varchar(64)"`
	Lat          float64 `json:"lat" gorm:"column:lat"`
	Lng          float64 `json:"lng" gorm:"column:lng"`
	IsDefault    bool    `json:"isDefault" gorm:"column:is_default"`
	IsHeadOffice bool    `json:"isHeadOffice" gorm:"column:is_head_office"`
}

// Repository lists the branches a partner has registered for a commodity.
type Repository interface {
	ListEligible(ctx context.Context, partnerID, commodityID string) ([]Branch, error)
	PrimaryAddress(ctx context.Context, partnerID string) (Branch, error)
}
