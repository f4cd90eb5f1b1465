package domain

import "time"

type User struct {
	ID              string    `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
	Country         string    `json:"country"`
	PrimaryCurrency string    `json:"primary_currency"`
	RiskScore       float64   `json:"risk_score"`
}

type Merchant struct {
	ID        string  `json:"merchant_id"`
	Name      string  `json:"merchant_name"`
	Category  string  `json:"category"`
	Country   string  `json:"country"`
	RiskScore float64 `json:"risk_score"`
}
