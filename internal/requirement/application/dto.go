package application

import "time"

// CreateRequirementCommand is the POST /requirements body; binding tags are
// validated by gin's default validator/v10 engine at the HTTP boundary,
// mirroring internal/order/application's DTO style.
type CreateRequirementCommand struct {
	BuyerPartnerID        string             `json:"buyerPartnerId" binding:"required"`
	BuyerBranchLocationID string             `json:"buyerBranchLocationId"`
	CommodityID           string             `json:"commodityId" binding:"required"`
	Quantity              float64            `json:"quantity" binding:"required,gt=0"`
	Unit                  string             `json:"unit" binding:"required"`
	PreferredPrice        float64            `json:"preferredPrice" binding:"required,gt=0"`
	MaxPrice              float64            `json:"maxPrice" binding:"required,gtfield=PreferredPrice"`
	QualitySpec           []QualityParamDTO  `json:"qualitySpec"`
	DeliveryLocation      LocationDTO        `json:"deliveryLocation" binding:"required"`
	DeliveryFrom          time.Time          `json:"deliveryFrom" binding:"required"`
	DeliveryTo            time.Time          `json:"deliveryTo" binding:"required,gtfield=DeliveryFrom"`
	IntentType            string             `json:"intentType" binding:"required,oneof=DIRECT_BUY NEGOTIATION AUCTION PRICE_DISCOVERY"`
	MarketVisibility      string             `json:"marketVisibility" binding:"required,oneof=PUBLIC RESTRICTED PRIVATE"`
	InvitedSellerIDs      []string           `json:"invitedSellerIds"`
	Urgency               string             `json:"urgency"`
	EodCutoff             time.Time          `json:"eodCutoff" binding:"required"`
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

type PatchRequirementCommand struct {
	RequirementID  string   `json:"-"`
	ExpectedVersion int     `json:"version" binding:"required"`
	PreferredPrice *float64 `json:"preferredPrice"`
	MaxPrice       *float64 `json:"maxPrice"`
	Quantity       *float64 `json:"quantity"`
	Status         *string  `json:"status"`
}
