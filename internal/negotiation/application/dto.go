package application

import "github.com/shopspring/decimal"

type StartNegotiationCommand struct {
	TokenHandle     string `json:"tokenHandle" validate:"required"`
	ActorPartnerID  string `json:"-"`
	InitialMessage  string `json:"initialMessage"`
}

type MakeOfferCommand struct {
	ActorPartnerID string          `json:"-"`
	Price          decimal.Decimal `json:"price" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity" validate:"required"`
	Unit           string          `json:"unit" validate:"required"`
	Terms          string          `json:"terms"`
}

type AcceptCommand struct {
	ActorPartnerID string `json:"-"`
	Message        string `json:"message"`
}

type RejectCommand struct {
	ActorPartnerID string            `json:"-"`
	Reason         string            `json:"reason" validate:"required"`
	Counter        *MakeOfferCommand `json:"counter"`
}

type SendMessageCommand struct {
	ActorPartnerID string `json:"-"`
	Content        string `json:"content" validate:"required"`
	Type           string `json:"type"`
}
