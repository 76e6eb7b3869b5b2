package protocol

import (
	"encoding/json"
	"testing"
)

func TestAccumulatorPartialFrameNotComplete(t *testing.T) {
	full := []byte(`{"type":"set_tempo","params":{"tempo":120.5}}`)

	var acc Accumulator
	for i := 1; i < len(full); i++ {
		acc.Reset()
		acc.Append(full[:i])

		var cmd Command
		ok, err := acc.Next(&cmd)
		if err != nil {
			t.Fatalf("prefix of %d bytes: unexpected error: %v", i, err)
		}
		if ok {
			t.Fatalf("prefix of %d bytes decoded as a complete frame", i)
		}
	}
}

func TestAccumulatorDecodesAfterCompletion(t *testing.T) {
	var acc Accumulator
	acc.Append([]byte(`{"type":"set_tempo","pa`))

	var cmd Command
	ok, err := acc.Next(&cmd)
	if err != nil {
		t.Fatalf("partial decode: %v", err)
	}
	if ok {
		t.Fatal("partial frame reported complete")
	}

	acc.Append([]byte(`rams":{"tempo":98}}`))
	ok, err = acc.Next(&cmd)
	if err != nil {
		t.Fatalf("completed decode: %v", err)
	}
	if !ok {
		t.Fatal("complete frame not decoded")
	}
	if cmd.Type != "set_tempo" {
		t.Fatalf("type = %q, want set_tempo", cmd.Type)
	}
	if acc.Len() != 0 {
		t.Fatalf("buffer not drained, %d bytes left", acc.Len())
	}
}

func TestAccumulatorBackToBackFrames(t *testing.T) {
	var acc Accumulator
	acc.Append([]byte(`{"type":"start_playback"}{"type":"stop_playback"}`))

	var first, second Command
	if ok, err := acc.Next(&first); err != nil || !ok {
		t.Fatalf("first frame: ok=%v err=%v", ok, err)
	}
	if ok, err := acc.Next(&second); err != nil || !ok {
		t.Fatalf("second frame: ok=%v err=%v", ok, err)
	}
	if first.Type != "start_playback" || second.Type != "stop_playback" {
		t.Fatalf("got %q then %q", first.Type, second.Type)
	}
}

func TestAccumulatorMalformedFrameDropsBuffer(t *testing.T) {
	var acc Accumulator
	acc.Append([]byte(`{"type":}`))

	var cmd Command
	ok, err := acc.Next(&cmd)
	if err == nil {
		t.Fatal("malformed frame decoded without error")
	}
	if ok {
		t.Fatal("malformed frame reported complete")
	}
	if acc.Len() != 0 {
		t.Fatal("malformed bytes left buffered")
	}
}

func TestResponseErr(t *testing.T) {
	raw, _ := json.Marshal(map[string]float64{"tempo": 120})
	ok := Response{Status: StatusSuccess, Result: raw}
	if err := ok.Err(); err != nil {
		t.Fatalf("success response reported error: %v", err)
	}

	bad := Error("Track index out of range")
	if err := bad.Err(); err == nil || err.Error() != "Track index out of range" {
		t.Fatalf("error response Err() = %v", bad.Err())
	}
}

func TestModifyingSetMatchesCatalogue(t *testing.T) {
	for _, name := range ModifyingCommands() {
		if !IsModifying(name) {
			t.Errorf("%s not flagged as modifying", name)
		}
	}
	for _, name := range ReadOnlyCommands() {
		if IsModifying(name) {
			t.Errorf("%s flagged as modifying", name)
		}
	}
	if IsModifying("does_not_exist") {
		t.Error("unknown command flagged as modifying")
	}
}
