package model

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestReceiptJSONRoundTrip(t *testing.T) {
	original := Receipt{
		Op:        OpSwap,
		Pool:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Caller:    common.HexToAddress("0x2222222222222222222222222222222222222222"),
		IsX:       true,
		AmountIn:  100,
		AmountOut: 360,
		Reserves:  Reserves{X: 1100, Y: 3640, LPSupply: 2000},
		Timestamp: 1700000000,
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Receipt
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestReceiptOmitsUnusedAmounts(t *testing.T) {
	data, err := json.Marshal(Receipt{Op: OpDeposit, LPAmount: 5})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["amount_out"]; ok {
		t.Fatalf("amount_out should be omitted")
	}
	if _, ok := decoded["lp_amount"]; !ok {
		t.Fatalf("lp_amount should be present")
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		value    uint64
		decimals uint8
		want     string
	}{
		{1_500_000, 6, "1.500000"},
		{42, 0, "42"},
		{1, 6, "0.000001"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.value, tc.decimals); got != tc.want {
			t.Fatalf("FormatAmount(%d, %d) = %s, want %s", tc.value, tc.decimals, got, tc.want)
		}
	}
}
