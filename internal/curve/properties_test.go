package curve

import (
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"pgregory.net/rapid"
)

const maxReserve = 1 << 48

func mul(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
}

func TestDepositIsProportionalRoundedUp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		supply := rapid.Uint64Range(1, maxReserve).Draw(t, "supply")
		rx := rapid.Uint64Range(0, maxReserve).Draw(t, "reserveX")
		ry := rapid.Uint64Range(0, maxReserve).Draw(t, "reserveY")
		lp := rapid.Uint64Range(1, supply).Draw(t, "lp")

		got, err := QuoteDeposit(rx, ry, supply, lp, 0, 0)
		if err != nil {
			t.Fatalf("quote deposit: %v", err)
		}

		// amount*supply >= lp*reserve > (amount-1)*supply
		for _, side := range []struct{ amount, reserve uint64 }{{got.X, rx}, {got.Y, ry}} {
			exact := mul(lp, side.reserve)
			if mul(side.amount, supply).Lt(exact) {
				t.Fatalf("under-collected: amount=%d reserve=%d lp=%d supply=%d", side.amount, side.reserve, lp, supply)
			}
			if side.amount > 0 && !mul(side.amount-1, supply).Lt(exact) {
				t.Fatalf("over-rounded: amount=%d reserve=%d lp=%d supply=%d", side.amount, side.reserve, lp, supply)
			}
		}
	})
}

func TestWithdrawNeverOverpays(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		supply := rapid.Uint64Range(1, maxReserve).Draw(t, "supply")
		rx := rapid.Uint64Range(0, maxReserve).Draw(t, "reserveX")
		ry := rapid.Uint64Range(0, maxReserve).Draw(t, "reserveY")
		lp := rapid.Uint64Range(1, supply).Draw(t, "lp")

		got, err := QuoteWithdraw(rx, ry, supply, lp)
		if err != nil {
			t.Fatalf("quote withdraw: %v", err)
		}
		if mul(got.X, supply).Gt(mul(lp, rx)) || mul(got.Y, supply).Gt(mul(lp, ry)) {
			t.Fatalf("overpaid: %+v for lp=%d supply=%d reserves=(%d,%d)", got, lp, supply, rx, ry)
		}
	})
}

func TestDepositThenWithdrawLosesOnlyRounding(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		supply := rapid.Uint64Range(1, maxReserve).Draw(t, "supply")
		rx := rapid.Uint64Range(1, maxReserve).Draw(t, "reserveX")
		ry := rapid.Uint64Range(1, maxReserve).Draw(t, "reserveY")
		lp := rapid.Uint64Range(1, supply).Draw(t, "lp")

		dep, err := QuoteDeposit(rx, ry, supply, lp, 0, 0)
		if err != nil {
			t.Fatalf("quote deposit: %v", err)
		}
		wd, err := QuoteWithdraw(rx+dep.X, ry+dep.Y, supply+lp, lp)
		if err != nil {
			t.Fatalf("quote withdraw: %v", err)
		}
		if wd.X > dep.X || wd.Y > dep.Y {
			t.Fatalf("round trip gained value: deposit=%+v withdraw=%+v", dep, wd)
		}
	})
}

func TestSwapKeepsProductAndReserve(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rIn := rapid.Uint64Range(1, maxReserve).Draw(t, "reserveIn")
		rOut := rapid.Uint64Range(1, maxReserve).Draw(t, "reserveOut")
		in := rapid.Uint64Range(1, maxReserve).Draw(t, "amountIn")
		fee := rapid.Uint16Range(0, 1000).Draw(t, "feeBps")

		out, err := QuoteSwap(rIn, rOut, in, fee)
		if errors.Is(err, ErrInsufficientReserves) {
			return
		}
		if err != nil {
			t.Fatalf("quote swap: %v", err)
		}
		if out >= rOut {
			t.Fatalf("drained reserve: out=%d reserveOut=%d", out, rOut)
		}
		if Invariant(rIn+in, rOut-out).Lt(Invariant(rIn, rOut)) {
			t.Fatalf("product decreased: in=%d out=%d reserves=(%d,%d)", in, out, rIn, rOut)
		}
	})
}

func TestSwapWithoutFeeMatchesExactCurve(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rIn := rapid.Uint64Range(1, maxReserve).Draw(t, "reserveIn")
		rOut := rapid.Uint64Range(1, maxReserve).Draw(t, "reserveOut")
		in := rapid.Uint64Range(1, maxReserve).Draw(t, "amountIn")

		out, err := QuoteSwap(rIn, rOut, in, 0)
		if errors.Is(err, ErrInsufficientReserves) {
			return
		}
		if err != nil {
			t.Fatalf("quote swap: %v", err)
		}

		// exact = rOut - rIn*rOut/(rIn+in)
		bigIn := new(big.Int).SetUint64(rIn)
		bigOut := new(big.Int).SetUint64(rOut)
		sum := new(big.Int).Add(bigIn, new(big.Int).SetUint64(in))
		exact := new(big.Rat).SetFrac(new(big.Int).Mul(bigIn, bigOut), sum)
		exact.Sub(new(big.Rat).SetInt(bigOut), exact)

		floor := new(big.Int).Quo(exact.Num(), exact.Denom())
		if floor.Cmp(new(big.Int).SetUint64(out)) != 0 {
			t.Fatalf("got %d want floor(%s)", out, exact.FloatString(6))
		}
	})
}
