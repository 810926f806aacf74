package domain

import "github.com/shopspring/decimal"

type OrderPlaced struct {
	OrderID  string          `json:"orderId"`
	UserID   string          `json:"userId"`
	Total    decimal.Decimal `json:"total"`
	Discount decimal.Decimal `json:"discount"`
	Items    []OrderItem     `json:"items"`
}
