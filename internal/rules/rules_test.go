package rules

import "testing"

func TestDefaultTableMatch(t *testing.T) {
	table := DefaultTable()

	rule, ok := table.Match("currency", "transfer")
	if !ok || rule.Points != 1 || rule.Effect != EffectValueSent {
		t.Fatalf("transfer rule mismatch: %+v ok=%v", rule, ok)
	}

	// Wildcard applies to transfer on any contract.
	rule, ok = table.Match("con_some_token", "transfer")
	if !ok || rule.Points != 1 {
		t.Fatalf("wildcard transfer mismatch: %+v ok=%v", rule, ok)
	}

	rule, ok = table.Match("con_staking_v1", "deposit")
	if !ok || rule.Points != 15 || rule.Effect != EffectStakeStart {
		t.Fatalf("deposit rule mismatch: %+v ok=%v", rule, ok)
	}

	for _, fn := range []string{"withdraw", "unstake", "emergency_withdraw"} {
		rule, ok = table.Match("con_staking_v1", fn)
		if !ok || rule.Points != 0 || rule.Effect != EffectStakeStop {
			t.Fatalf("%s rule mismatch: %+v ok=%v", fn, rule, ok)
		}
	}

	if _, ok = table.Match("con_unknown", "unknown"); ok {
		t.Fatalf("unexpected match for unknown pair")
	}
	if _, ok = table.Match("currency", "approve"); ok {
		t.Fatalf("function match must be exact")
	}
}

func TestMatchPriorityFirstWins(t *testing.T) {
	specific := Rule{Contract: "con_gold", Function: "transfer", Points: 7}
	wildcard := Rule{Contract: Wildcard, Function: "transfer", Points: 1}

	table := NewTable([]Rule{specific, wildcard})
	rule, ok := table.Match("con_gold", "transfer")
	if !ok || rule.Points != 7 {
		t.Fatalf("specific rule should win when listed first: %+v", rule)
	}

	table = NewTable([]Rule{wildcard, specific})
	rule, ok = table.Match("con_gold", "transfer")
	if !ok || rule.Points != 1 {
		t.Fatalf("wildcard rule should win when listed first: %+v", rule)
	}
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{"10.5", 10.5},
		{" 42 ", 42},
		{float64(3.25), 3.25},
		{int(7), 7},
		{"not a number", 0},
		{nil, 0},
		{true, 0},
		{[]any{1}, 0},
	}

	for _, tc := range cases {
		if got := Coerce(tc.in); got != tc.want {
			t.Fatalf("Coerce(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestAmount(t *testing.T) {
	rule := Rule{AmountField: "amount"}

	if got := rule.Amount(map[string]any{"amount": "10.5"}); got != 10.5 {
		t.Fatalf("amount = %v, want 10.5", got)
	}
	if got := rule.Amount(map[string]any{"amount": "garbage"}); got != 0 {
		t.Fatalf("unparseable amount = %v, want 0", got)
	}
	if got := rule.Amount(map[string]any{}); got != 0 {
		t.Fatalf("missing amount = %v, want 0", got)
	}
	if got := (Rule{}).Amount(map[string]any{"amount": "5"}); got != 0 {
		t.Fatalf("rule without amount field = %v, want 0", got)
	}
}

func TestVolume(t *testing.T) {
	rule := Rule{VolumeFields: []string{"amountIn", "amount_in", "amount"}}

	if got := rule.Volume(map[string]any{"amountIn": "7"}); got != 7 {
		t.Fatalf("volume = %v, want 7", got)
	}
	// First candidate unparseable, fall through to the next.
	if got := rule.Volume(map[string]any{"amountIn": "x", "amount_in": "3"}); got != 3 {
		t.Fatalf("volume = %v, want 3", got)
	}
	if got := rule.Volume(map[string]any{}); got != 1 {
		t.Fatalf("default volume = %v, want 1", got)
	}
}
