package application

import "time"

// CreateAvailabilityCommand is the POST /availabilities body; mirror of
// requirement's CreateRequirementCommand.
type CreateAvailabilityCommand struct {
	SellerPartnerID        string            `json:"sellerPartnerId" binding:"required"`
	SellerBranchLocationID string            `json:"sellerBranchLocationId"`
	CommodityID            string            `json:"commodityId" binding:"required"`
	TotalQuantity          float64           `json:"totalQuantity" binding:"required,gt=0"`
	Unit                   string            `json:"unit" binding:"required"`
	AskingPrice            float64           `json:"askingPrice" binding:"required,gt=0"`
	AllowPartialOrder      bool              `json:"allowPartialOrder"`
	MinOrderQuantity       float64           `json:"minOrderQuantity"`
	QualitySpec            []QualityParamDTO `json:"qualitySpec"`
	DeliveryLocation       LocationDTO       `json:"deliveryLocation" binding:"required"`
	DeliveryFrom           time.Time         `json:"deliveryFrom" binding:"required"`
	DeliveryTo             time.Time         `json:"deliveryTo" binding:"required,gtfield=DeliveryFrom"`
	IntentType             string            `json:"intentType" binding:"required,oneof=SPOT BOOKING CONTRACT OTC"`
	MarketVisibility       string            `json:"marketVisibility" binding:"required,oneof=PUBLIC RESTRICTED PRIVATE"`
	InvitedBuyerIDs        []string          `json:"invitedBuyerIds"`
}

type QualityParamDTO struct {
	Name      string   `json:"name" binding:"required"`
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
	Target    *float64 `json:"target"`
	Tolerance float64  `json:"tolerance"`
	Mandatory bool     `json:"mandatory"`
}

type LocationDTO struct {
	RegisteredLocationID string  `json:"registeredLocationId"`
	Address              string  `json:"address"`
	Lat                  float64 `json:"lat"`
	Lng                  float64 `json:"lng"`
	Region               string  `json:"region"`
	Pincode              string  `json:"pincode"`
}

// ReserveCommand is the POST /availabilities/{id}/reserve body.
type ReserveCommand struct {
	BuyerPartnerID string  `json:"buyerPartnerId" binding:"required"`
	Quantity       float64 `json:"quantity" binding:"required,gt=0"`
	HoldHours      int     `json:"holdHours" binding:"required,gt=0"`
}

// ReleaseCommand is the POST /availabilities/{id}/release body.
type ReleaseCommand struct {
	BuyerPartnerID string `json:"buyerPartnerId" binding:"required"`
	Reason         string `json:"reason"`
}
