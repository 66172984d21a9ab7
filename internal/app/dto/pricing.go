package dto

import (
	domainpricing "driveshare/internal/domain/pricing"
	"driveshare/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

type Quote struct {
	Days          int      `json:"days"`
	Tier          string   `json:"tier"`
	EffectiveRate MoneyDTO `json:"effective_rate"`
	Subtotal      MoneyDTO `json:"subtotal"`
	OriginalCost  MoneyDTO `json:"original_cost"`
	Savings       MoneyDTO `json:"savings"`
	InsuranceFee  MoneyDTO `json:"insurance_fee"`
	ServiceFee    MoneyDTO `json:"service_fee"`
	Total         MoneyDTO `json:"total"`
	DiscountLabel string   `json:"discount_label,omitempty"`
}

func MapQuote(q domainpricing.Quote) Quote {
	return Quote{
		Days:          q.Days,
		Tier:          string(q.Tier),
		EffectiveRate: MapMoney(q.EffectiveRate),
		Subtotal:      MapMoney(q.Subtotal),
		OriginalCost:  MapMoney(q.OriginalCost),
		Savings:       MapMoney(q.Savings),
		InsuranceFee:  MapMoney(q.InsuranceFee),
		ServiceFee:    MapMoney(q.ServiceFee),
		Total:         MapMoney(q.Total),
		DiscountLabel: q.DiscountLabel,
	}
}
