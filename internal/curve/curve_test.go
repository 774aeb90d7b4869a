package curve

import (
	"errors"
	"math"
	"testing"
)

func TestQuoteSwapScenario(t *testing.T) {
	out, err := QuoteSwap(1000, 4000, 100, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != 360 {
		t.Fatalf("unexpected amountOut: got %d want 360", out)
	}
}

func TestQuoteSwapErrors(t *testing.T) {
	cases := []struct {
		name       string
		reserveIn  uint64
		reserveOut uint64
		amountIn   uint64
		feeBps     uint16
		want       error
	}{
		{"empty_out_reserve", 1000, 0, 10, 30, ErrInsufficientReserves},
		{"dust_trade", 1_000_000, 1000, 1, 30, ErrInsufficientReserves},
		{"fee_eats_input_on_empty_pool", 0, 1000, 5, 10_000, ErrDivideByZero},
		{"fee_too_high", 1000, 1000, 5, 10_001, ErrInvalidFee},
		{"empty_in_reserve_zero_input", 0, 1000, 0, 0, ErrDivideByZero},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QuoteSwap(tc.reserveIn, tc.reserveOut, tc.amountIn, tc.feeBps)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestQuoteSwapZeroInputOnFundedPool(t *testing.T) {
	out, err := QuoteSwap(1000, 1000, 0, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != 0 {
		t.Fatalf("expected zero output, got %d", out)
	}
}

func TestQuoteSwapLargeReserves(t *testing.T) {
	out, err := QuoteSwap(math.MaxUint64/2, math.MaxUint64, math.MaxUint64/2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// equal input and reserve with no fee takes half the output reserve
	if want := uint64(math.MaxUint64 / 2); out != want {
		t.Fatalf("unexpected amountOut: got %d want %d", out, want)
	}
}

func TestQuoteDepositFirstDeposit(t *testing.T) {
	got, err := QuoteDeposit(0, 0, 0, 500, 1000, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Amounts{X: 1000, Y: 1000}) {
		t.Fatalf("unexpected amounts: %+v", got)
	}

	if _, err := QuoteDeposit(0, 0, 0, 500, 0, 1000); !errors.Is(err, ErrInsufficientLiquidityMinted) {
		t.Fatalf("expected ErrInsufficientLiquidityMinted, got %v", err)
	}
}

func TestQuoteDepositRoundsUp(t *testing.T) {
	// 1 * 10 / 3 = 3.33 -> 4, 1 * 20 / 3 = 6.67 -> 7
	got, err := QuoteDeposit(10, 20, 3, 1, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Amounts{X: 4, Y: 7}) {
		t.Fatalf("unexpected amounts: %+v", got)
	}

	exact, err := QuoteDeposit(300, 600, 3, 1, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exact != (Amounts{X: 100, Y: 200}) {
		t.Fatalf("unexpected amounts: %+v", exact)
	}
}

func TestQuoteDepositZeroAmount(t *testing.T) {
	if _, err := QuoteDeposit(10, 10, 10, 0, 10, 10); !errors.Is(err, ErrInsufficientLiquidityMinted) {
		t.Fatalf("expected ErrInsufficientLiquidityMinted, got %v", err)
	}
}

func TestQuoteDepositOverflow(t *testing.T) {
	if _, err := QuoteDeposit(math.MaxUint64, 1, 1, 2, 0, 0); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestQuoteWithdrawRoundsDown(t *testing.T) {
	got, err := QuoteWithdraw(10, 20, 3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Amounts{X: 3, Y: 6}) {
		t.Fatalf("unexpected amounts: %+v", got)
	}
}

func TestQuoteWithdrawErrors(t *testing.T) {
	if _, err := QuoteWithdraw(10, 10, 0, 1); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}
	if _, err := QuoteWithdraw(10, 10, 5, 6); !errors.Is(err, ErrInsufficientReserves) {
		t.Fatalf("expected ErrInsufficientReserves, got %v", err)
	}
}

func TestSpotPrice(t *testing.T) {
	price, err := SpotPrice(1000, 4000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price.FloatString(2) != "4.00" {
		t.Fatalf("unexpected price: %s", price.FloatString(2))
	}
	if _, err := SpotPrice(0, 1); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}
}

func TestEffectiveInput(t *testing.T) {
	cases := []struct {
		amountIn uint64
		feeBps   uint16
		want     uint64
	}{
		{100, 30, 99},
		{100, 0, 100},
		{100, 10_000, 0},
		{math.MaxUint64, 1, 18_444_899_399_302_180_659},
	}
	for _, tc := range cases {
		got, err := EffectiveInput(tc.amountIn, tc.feeBps)
		if err != nil {
			t.Fatalf("EffectiveInput(%d, %d): unexpected error %v", tc.amountIn, tc.feeBps, err)
		}
		if got != tc.want {
			t.Fatalf("EffectiveInput(%d, %d) = %d, want %d", tc.amountIn, tc.feeBps, got, tc.want)
		}
	}
	if _, err := EffectiveInput(1, 10_001); !errors.Is(err, ErrInvalidFee) {
		t.Fatalf("expected ErrInvalidFee, got %v", err)
	}
}
