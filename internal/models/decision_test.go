package models

import "testing"

func TestParseAction(t *testing.T) {
	cases := map[string]Action{
		"buy":      ActionBuy,
		"sell":     ActionSell,
		"short":    ActionShort,
		"cover":    ActionCover,
		"hold":     ActionHold,
		"":         ActionHold,
		"BUY":      ActionHold, // matching is exact, not case-folded
		"momentum": ActionHold,
	}
	for raw, want := range cases {
		if got := ParseAction(raw); got != want {
			t.Fatalf("ParseAction(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestHoldDecision(t *testing.T) {
	d := HoldDecision()
	if d.Action != ActionHold || d.Quantity != 0 {
		t.Fatalf("unexpected hold decision: %+v", d)
	}
}

func TestInsiderTradeEffectiveDate(t *testing.T) {
	trade := InsiderTrade{TransactionDate: "2025-09-16", FilingDate: "2025-09-18"}
	if got := trade.EffectiveDate(); got != "2025-09-16" {
		t.Fatalf("transaction date must win, got %s", got)
	}

	trade = InsiderTrade{FilingDate: "2025-09-18"}
	if got := trade.EffectiveDate(); got != "2025-09-18" {
		t.Fatalf("filing date fallback broken, got %s", got)
	}

	trade = InsiderTrade{}
	if got := trade.EffectiveDate(); got != "" {
		t.Fatalf("expected empty effective date, got %s", got)
	}
}

func TestPriceDate(t *testing.T) {
	p := Price{Time: "2025-09-15T00:00:00Z"}
	if got := p.Date(); got != "2025-09-15" {
		t.Fatalf("expected date portion, got %s", got)
	}
	p = Price{Time: "2025-09-15"}
	if got := p.Date(); got != "2025-09-15" {
		t.Fatalf("date-only timestamps pass through, got %s", got)
	}
}
