package model

import "time"

// Account holds the derived reputation state for a single address. Accounts
// are created on the first scored event and never deleted; all numeric
// fields are cumulative.
type Account struct {
	Address          string    `json:"address"`
	Score            int64     `json:"score"`
	Value            float64   `json:"value"`
	ValueSent        float64   `json:"value_sent"`
	ExchangeVolume   float64   `json:"exchange_volume"`
	ExchangeCount    int64     `json:"exchange_count"`
	StakeDurationSec int64     `json:"stake_duration_sec"`
	StakeActive      bool      `json:"stake_active"`
	StakeLastUpdate  *int64    `json:"stake_last_update,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}
