package backtest

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestNewPortfolioSeedsAllTickers(t *testing.T) {
	p := NewPortfolio([]string{"TTWO", "LUG", "FDEV"}, 100000, 0.5)

	if p.Cash() != 100000 {
		t.Fatalf("expected cash 100000, got %f", p.Cash())
	}
	if p.MarginUsed() != 0 {
		t.Fatalf("expected zero margin used, got %f", p.MarginUsed())
	}
	for _, ticker := range []string{"TTWO", "LUG", "FDEV"} {
		pos := p.Position(ticker)
		if pos.Long != 0 || pos.Short != 0 {
			t.Fatalf("expected flat position for %s, got %+v", ticker, pos)
		}
	}
}

func TestLongBuyWeightedAverageCostBasis(t *testing.T) {
	p := NewPortfolio([]string{"TTWO"}, 100000, 0.5)

	p.ApplyLongBuy("TTWO", 10, 100)
	p.ApplyLongBuy("TTWO", 10, 200)

	pos := p.Position("TTWO")
	if pos.Long != 20 {
		t.Fatalf("expected 20 shares, got %d", pos.Long)
	}
	if !almostEqual(pos.LongCostBasis, 150) {
		t.Fatalf("expected cost basis 150, got %f", pos.LongCostBasis)
	}
	if !almostEqual(p.Cash(), 100000-10*100-10*200) {
		t.Fatalf("unexpected cash %f", p.Cash())
	}
}

func TestLongSellRealizesGainAndResetsBasisAtZero(t *testing.T) {
	p := NewPortfolio([]string{"TTWO"}, 100000, 0.5)
	p.ApplyLongBuy("TTWO", 10, 100)

	p.ApplyLongSell("TTWO", 4, 150)

	pos := p.Position("TTWO")
	if pos.Long != 6 {
		t.Fatalf("expected 6 shares remaining, got %d", pos.Long)
	}
	if !almostEqual(pos.LongCostBasis, 100) {
		t.Fatalf("partial sell must keep cost basis, got %f", pos.LongCostBasis)
	}
	if !almostEqual(p.Realized("TTWO").Long, 4*(150-100)) {
		t.Fatalf("expected realized gain 200, got %f", p.Realized("TTWO").Long)
	}

	p.ApplyLongSell("TTWO", 6, 150)
	if pos.Long != 0 {
		t.Fatalf("expected flat position, got %d", pos.Long)
	}
	if pos.LongCostBasis != 0 {
		t.Fatalf("full liquidation must reset cost basis, got %f", pos.LongCostBasis)
	}
	if !almostEqual(p.Realized("TTWO").Long, 10*(150-100)) {
		t.Fatalf("realized gains must accumulate, got %f", p.Realized("TTWO").Long)
	}
}

func TestShortOpenReservesMarginAndCreditsProceeds(t *testing.T) {
	p := NewPortfolio([]string{"FDEV"}, 100000, 0.5)

	p.ApplyShortOpen("FDEV", 10, 200)

	pos := p.Position("FDEV")
	if pos.Short != 10 {
		t.Fatalf("expected 10 shares short, got %d", pos.Short)
	}
	if !almostEqual(pos.ShortCostBasis, 200) {
		t.Fatalf("expected short cost basis 200, got %f", pos.ShortCostBasis)
	}
	wantMargin := 10 * 200 * 0.5
	if !almostEqual(pos.ShortMarginUsed, wantMargin) || !almostEqual(p.MarginUsed(), wantMargin) {
		t.Fatalf("expected margin %f, got position=%f total=%f", wantMargin, pos.ShortMarginUsed, p.MarginUsed())
	}
	if !almostEqual(p.Cash(), 100000+10*200) {
		t.Fatalf("short proceeds must credit cash, got %f", p.Cash())
	}
}

func TestShortCoverReleasesMarginProportionally(t *testing.T) {
	p := NewPortfolio([]string{"FDEV"}, 100000, 0.5)
	p.ApplyShortOpen("FDEV", 10, 200)

	p.ApplyShortCover("FDEV", 4, 150)

	pos := p.Position("FDEV")
	if pos.Short != 6 {
		t.Fatalf("expected 6 shares short remaining, got %d", pos.Short)
	}
	if !almostEqual(p.Realized("FDEV").Short, 4*(200-150)) {
		t.Fatalf("expected realized short gain 200, got %f", p.Realized("FDEV").Short)
	}
	wantRemaining := 10 * 200 * 0.5 * 0.6
	if !almostEqual(pos.ShortMarginUsed, wantRemaining) {
		t.Fatalf("expected remaining margin %f, got %f", wantRemaining, pos.ShortMarginUsed)
	}
	if !almostEqual(p.MarginUsed(), pos.ShortMarginUsed) {
		t.Fatalf("total margin must track position margin: total=%f position=%f", p.MarginUsed(), pos.ShortMarginUsed)
	}

	p.ApplyShortCover("FDEV", 6, 150)
	if pos.Short != 0 {
		t.Fatalf("expected flat short, got %d", pos.Short)
	}
	if pos.ShortCostBasis != 0 {
		t.Fatalf("full cover must reset short cost basis, got %f", pos.ShortCostBasis)
	}
	if !almostEqual(p.MarginUsed(), 0) || !almostEqual(pos.ShortMarginUsed, 0) {
		t.Fatalf("full cover must release all margin, got total=%f position=%f", p.MarginUsed(), pos.ShortMarginUsed)
	}
}

func TestMarginInvariantAcrossManyTickers(t *testing.T) {
	p := NewPortfolio([]string{"A", "B"}, 100000, 0.4)
	p.ApplyShortOpen("A", 7, 130)
	p.ApplyShortOpen("B", 3, 90)
	p.ApplyShortCover("A", 2, 120)
	p.ApplyShortOpen("A", 5, 110)
	p.ApplyShortCover("B", 3, 95)

	sum := p.Position("A").ShortMarginUsed + p.Position("B").ShortMarginUsed
	if !almostEqual(p.MarginUsed(), sum) {
		t.Fatalf("margin invariant broken: total=%f sum=%f", p.MarginUsed(), sum)
	}
}

func TestBothLegsCoexistWithoutNetting(t *testing.T) {
	p := NewPortfolio([]string{"LUG"}, 100000, 0.5)
	p.ApplyLongBuy("LUG", 10, 50)
	p.ApplyShortOpen("LUG", 5, 55)

	pos := p.Position("LUG")
	if pos.Long != 10 || pos.Short != 5 {
		t.Fatalf("legs must not net: long=%d short=%d", pos.Long, pos.Short)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	p := NewPortfolio([]string{"TTWO"}, 100000, 0.5)
	p.ApplyLongBuy("TTWO", 10, 100)

	snap := p.Snapshot()
	mutated := snap.Positions["TTWO"]
	mutated.Long = 999
	snap.Positions["TTWO"] = mutated
	snap.Cash = 0

	if p.Position("TTWO").Long != 10 {
		t.Fatalf("snapshot mutation leaked into ledger: %d", p.Position("TTWO").Long)
	}
	if p.Cash() == 0 {
		t.Fatalf("snapshot cash mutation leaked into ledger")
	}
}

func TestPositionMaterializesUnknownTicker(t *testing.T) {
	p := NewPortfolio(nil, 1000, 0.5)
	pos := p.Position("NEW")
	if pos == nil || pos.Long != 0 || pos.Short != 0 {
		t.Fatalf("expected zeroed position, got %+v", pos)
	}
	if p.Realized("NEW").Long != 0 {
		t.Fatalf("expected zeroed realized gains")
	}
}
