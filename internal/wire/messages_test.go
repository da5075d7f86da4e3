package wire

import (
	"bytes"
	"reflect"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := []Message{
		&GreetClient{Version1: 11, Version2: 16},
		&GreetServer{Version: 1},
		&MatchCreateOrJoin{Color: ColorWhite, Clock: ClockNo, Variant: VariantStandard, Visibility: VisibilityPublic, Passcode: -1},
		&MatchCreateOrJoinResult{Result: 1, Color: ColorWhite, Clock: ClockNo, Variant: VariantStandard, Visibility: VisibilityPublic, Passcode: 42},
		&MatchCancel{},
		&MatchCancelResult{Result: 1},
		&MatchStart{Clock: ClockNo, Variant: VariantStandard, MatchID: 7, Color: PlayWhite, MessageID: 1},
		&OpponentLeft{},
		&Forfeit{},
		&Action{ActionType: ActionMove, Color: PlayWhite, MessageID: 2, SrcY: 1, SrcX: 4, DstY: 3, DstX: 4},
		&MatchListRequest{},
		&MatchList{
			IsHost:        1,
			HostColor:     ColorWhite,
			HostPasscode:  42,
			PublicMatches: []PublicMatchEntry{{Color: ColorWhite, Clock: ClockNo, Variant: VariantStandard, Passcode: 42}},
		},
	}

	for _, want := range cases {
		encoded := want.Encode()

		got, err := Decode(encoded)
		if err != nil {
			t.Errorf("%s: decode: %v", want.Type(), err)
			continue
		}

		if !reflect.DeepEqual(want, got) {
			t.Errorf("%s: round trip mismatch: want=%#v got=%#v", want.Type(), want, got)
		}

		if again := got.Encode(); !bytes.Equal(encoded, again) {
			t.Errorf("%s: re-encode mismatch", want.Type())
		}
	}
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	payload := (&GreetClient{}).Encode()
	payload = append(payload, 0) // corrupt the length

	if _, err := Decode(payload); err == nil {
		t.Fatal("expected a framing error for mismatched length")
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	payload := make([]byte, 9)
	payload[0] = 99 // type 99, not in legalLength

	if _, err := Decode(payload); err == nil {
		t.Fatal("expected a framing error for unknown type")
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	lenBuf := make([]byte, 8)
	for i := range lenBuf {
		lenBuf[i] = 0xff
	}
	buf.Write(lenBuf)

	if _, err := ReadFrame(&buf); err != ErrFrameTooLarge {
		t.Fatalf("want ErrFrameTooLarge, got %v", err)
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	msg := &GreetClient{Version1: 11, Version2: 16}

	if err := WriteMessage(&buf, msg); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if !reflect.DeepEqual(msg, got) {
		t.Fatalf("want=%#v got=%#v", msg, got)
	}
}
