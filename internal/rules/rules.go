// Package rules classifies transactions into point awards. The watch list is
// a data-driven table consulted by a single matcher, so adding a scored
// action is a data change.
package rules

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Wildcard matches any contract in a rule.
const Wildcard = "*"

// Effect selects the ledger side effect a rule carries beyond its points.
type Effect int

const (
	// EffectNone awards points only.
	EffectNone Effect = iota
	// EffectValueSent also accumulates the transferred amount.
	EffectValueSent
	// EffectExchange also accumulates exchange volume and count.
	EffectExchange
	// EffectStakeStart also opens or refreshes the stake interval.
	EffectStakeStart
	// EffectStakeStop closes the stake interval; no points are awarded.
	EffectStakeStop
)

// Rule maps a (contract, function) pair to a point award and side effect.
type Rule struct {
	Contract     string
	Function     string
	Points       int64
	AmountField  string   // kwargs field feeding the value accumulator, "" for none
	VolumeFields []string // candidate kwargs fields for exchange volume
	Effect       Effect
}

// Matches reports whether the rule applies to the pair. Function match is
// exact; contract match is exact unless the rule uses the wildcard.
func (r Rule) Matches(contract, function string) bool {
	if r.Function != function {
		return false
	}
	return r.Contract == Wildcard || r.Contract == contract
}

// Amount reads the rule's amount field from kwargs. Missing or non-numeric
// values resolve to zero.
func (r Rule) Amount(kwargs map[string]any) float64 {
	if r.AmountField == "" {
		return 0
	}
	return Coerce(kwargs[r.AmountField])
}

// Volume reads the first coercible volume candidate from kwargs, defaulting
// to 1 so exchanges without a recognizable amount still count.
func (r Rule) Volume(kwargs map[string]any) float64 {
	for _, field := range r.VolumeFields {
		v, ok := kwargs[field]
		if !ok {
			continue
		}
		if parsed, ok := coerce(v); ok {
			return parsed
		}
	}
	return 1
}

// Table is an ordered rule set; the first matching rule wins.
type Table struct {
	rules []Rule
}

// NewTable builds a table from rules in priority order.
func NewTable(rules []Rule) *Table {
	return &Table{rules: rules}
}

// Match returns the first rule matching the pair.
func (t *Table) Match(contract, function string) (Rule, bool) {
	for _, r := range t.rules {
		if r.Matches(contract, function) {
			return r, true
		}
	}
	return Rule{}, false
}

// DefaultTable returns the production watch list.
func DefaultTable() *Table {
	return NewTable([]Rule{
		{Contract: Wildcard, Function: "transfer", Points: 1, AmountField: "amount", Effect: EffectValueSent},
		{Contract: "con_dex_v2", Function: "swapExactTokenForToken", Points: 5, VolumeFields: []string{"amountIn", "amount_in", "amount"}, Effect: EffectExchange},
		{Contract: "con_staking_v1", Function: "deposit", Points: 15, Effect: EffectStakeStart},
		{Contract: "con_staking_v1", Function: "withdraw", Effect: EffectStakeStop},
		{Contract: "con_staking_v1", Function: "unstake", Effect: EffectStakeStop},
		{Contract: "con_staking_v1", Function: "emergency_withdraw", Effect: EffectStakeStop},
		{Contract: "con_xipoll_v0_clean", Function: "vote", Points: 5},
		{Contract: "submission", Function: "submit_contract", Points: 50},
	})
}

// Coerce converts a freeform kwarg value to a float64. Unparseable values
// resolve to zero; coercion never fails the pipeline.
func Coerce(v any) float64 {
	parsed, _ := coerce(v)
	return parsed
}

func coerce(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
