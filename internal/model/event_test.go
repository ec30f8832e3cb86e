package model

import (
	"encoding/json"
	"testing"
)

func TestEventDecodesAsRecord(t *testing.T) {
	event := Event{
		Seq:       3,
		Kind:      EventSwap,
		Pool:      "0x1111111111111111111111111111111111111111",
		Account:   "0x2222222222222222222222222222222222222222",
		Timestamp: 1700000000,
		Data: SwapEventData{
			TokenIn:   "0xaa",
			TokenOut:  "0xbb",
			AmountIn:  "100",
			AmountOut: "363",
			FeeAmount: "0",
		},
		Reserves: PoolReserves{ReserveA: "1100", ReserveB: "3637", TotalLiquidity: "2000", FeeBps: 30},
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var record EventRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if record.Seq != 3 || record.Kind != EventSwap || record.Reserves.ReserveB != "3637" {
		t.Fatalf("unexpected record: %+v", record)
	}

	var swap SwapEventData
	if err := json.Unmarshal(record.Data, &swap); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if swap.AmountOut != "363" {
		t.Fatalf("amount_out = %s", swap.AmountOut)
	}
}

func TestSwapEventDataJSONStringFields(t *testing.T) {
	payload := SwapEventData{
		TokenIn:   "0x1111111111111111111111111111111111111111",
		TokenOut:  "0x2222222222222222222222222222222222222222",
		AmountIn:  "115792089237316195423570985008687907853269984665640564039457584007913129639935",
		AmountOut: "42",
		FeeAmount: "1",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"amount_in", "amount_out", "fee_amount"} {
		if _, ok := decoded[key].(string); !ok {
			t.Fatalf("%s should be string", key)
		}
	}
}

func TestLatestSnapshots(t *testing.T) {
	events := []Event{
		{Seq: 1, Pool: "0xa", Reserves: PoolReserves{ReserveA: "1000"}},
		{Seq: 2, Pool: "0xb", Reserves: PoolReserves{ReserveA: "5"}},
		{Seq: 3, Pool: "0xa", Reserves: PoolReserves{ReserveA: "1100"}},
	}

	snaps := LatestSnapshots(events)
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].Address != "0xa" || snaps[0].ReserveA != "1100" || snaps[0].LastSeq != 3 {
		t.Fatalf("unexpected first snapshot: %+v", snaps[0])
	}
	if snaps[1].Address != "0xb" || snaps[1].LastSeq != 2 {
		t.Fatalf("unexpected second snapshot: %+v", snaps[1])
	}
}
