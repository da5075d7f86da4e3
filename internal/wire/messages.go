package wire

import "fmt"

// Message is any decoded frame payload. Encode reproduces the exact
// on-wire bytes (minus the length prefix) for the message as decoded,
// so decode-then-encode always round-trips byte for byte.
type Message interface {
	Type() MessageType
	Encode() []byte
}

// reserved zero-fills the trailing unused i64 slots of a fixed record.
func reserved(s *Serializer, n int) {
	for i := 0; i < n; i++ {
		s.PutI64(0)
	}
}

type GreetClient struct {
	Version1 int64
	Version2 int64
}

func (m *GreetClient) Type() MessageType { return TypeGreetClient }

func (m *GreetClient) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeGreetClient]))
	s.PutType(TypeGreetClient)
	s.PutI64(m.Version1)
	s.PutI64(m.Version2)
	reserved(s, 4)
	return s.Bytes()
}

func decodeGreetClient(d *Deserializer) *GreetClient {
	return &GreetClient{Version1: d.GetI64(), Version2: d.GetI64()}
}

type GreetServer struct {
	Version int64
}

func (m *GreetServer) Type() MessageType { return TypeGreetServer }

func (m *GreetServer) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeGreetServer]))
	s.PutType(TypeGreetServer)
	s.PutI64(m.Version)
	reserved(s, 5)
	return s.Bytes()
}

func decodeGreetServer(d *Deserializer) *GreetServer {
	return &GreetServer{Version: d.GetI64()}
}

// MatchCreateOrJoin is a create iff Passcode == -1.
type MatchCreateOrJoin struct {
	Color      Color
	Clock      Clock
	Variant    Variant
	Visibility Visibility
	Passcode   int64
}

func (m *MatchCreateOrJoin) Type() MessageType { return TypeMatchCreateOrJoin }

func (m *MatchCreateOrJoin) IsCreate() bool { return m.Passcode == -1 }

func (m *MatchCreateOrJoin) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeMatchCreateOrJoin]))
	s.PutType(TypeMatchCreateOrJoin)
	s.PutI64(int64(m.Color))
	s.PutI64(int64(m.Clock))
	s.PutI64(int64(m.Variant))
	s.PutI64(int64(m.Visibility))
	s.PutI64(m.Passcode)
	return s.Bytes()
}

func decodeMatchCreateOrJoin(d *Deserializer) *MatchCreateOrJoin {
	return &MatchCreateOrJoin{
		Color:      Color(d.GetI64()),
		Clock:      Clock(d.GetI64()),
		Variant:    Variant(d.GetI64()),
		Visibility: Visibility(d.GetI64()),
		Passcode:   d.GetI64(),
	}
}

type MatchCreateOrJoinResult struct {
	Result     int64 // 1 = success, 0 = failure
	Reason     int64
	Color      Color
	Clock      Clock
	Variant    Variant
	Visibility Visibility
	Passcode   int64
}

func (m *MatchCreateOrJoinResult) Type() MessageType { return TypeMatchCreateOrJoinResult }

func (m *MatchCreateOrJoinResult) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeMatchCreateOrJoinResult]))
	s.PutType(TypeMatchCreateOrJoinResult)
	s.PutI64(m.Result)
	s.PutI64(m.Reason)
	s.PutI64(int64(m.Color))
	s.PutI64(int64(m.Clock))
	s.PutI64(int64(m.Variant))
	s.PutI64(int64(m.Visibility))
	s.PutI64(m.Passcode)
	return s.Bytes()
}

func decodeMatchCreateOrJoinResult(d *Deserializer) *MatchCreateOrJoinResult {
	return &MatchCreateOrJoinResult{
		Result:     d.GetI64(),
		Reason:     d.GetI64(),
		Color:      Color(d.GetI64()),
		Clock:      Clock(d.GetI64()),
		Variant:    Variant(d.GetI64()),
		Visibility: Visibility(d.GetI64()),
		Passcode:   d.GetI64(),
	}
}

// FailedCreateOrJoinResult builds the canonical failure layout: result=0,
// the given reason, all config fields zero, passcode=-1.
func FailedCreateOrJoinResult(reason int64) *MatchCreateOrJoinResult {
	return &MatchCreateOrJoinResult{Result: 0, Reason: reason, Passcode: -1}
}

type MatchCancel struct{}

func (m *MatchCancel) Type() MessageType { return TypeMatchCancel }

func (m *MatchCancel) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeMatchCancel]))
	s.PutType(TypeMatchCancel)
	s.PutU8(0)
	return s.Bytes()
}

func decodeMatchCancel(d *Deserializer) *MatchCancel {
	d.GetU8()
	return &MatchCancel{}
}

// MatchCancelResult.Result is 1 on success (one open match removed), 0 on
// failure (none removed, including a second cancel with no intervening
// create).
type MatchCancelResult struct {
	Result int64
}

func (m *MatchCancelResult) Type() MessageType { return TypeMatchCancelResult }

func (m *MatchCancelResult) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeMatchCancelResult]))
	s.PutType(TypeMatchCancelResult)
	s.PutI64(m.Result)
	return s.Bytes()
}

func decodeMatchCancelResult(d *Deserializer) *MatchCancelResult {
	return &MatchCancelResult{Result: d.GetI64()}
}

type MatchStart struct {
	Clock     Clock
	Variant   Variant
	MatchID   uint64
	Color     PlayColor
	MessageID uint64
}

func (m *MatchStart) Type() MessageType { return TypeMatchStart }

func (m *MatchStart) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeMatchStart]))
	s.PutType(TypeMatchStart)
	s.PutI64(int64(m.Clock))
	s.PutI64(int64(m.Variant))
	s.PutU64(m.MatchID)
	s.PutI64(int64(m.Color))
	s.PutU64(m.MessageID)
	return s.Bytes()
}

func decodeMatchStart(d *Deserializer) *MatchStart {
	return &MatchStart{
		Clock:     Clock(d.GetI64()),
		Variant:   Variant(d.GetI64()),
		MatchID:   d.GetU64(),
		Color:     PlayColor(d.GetI64()),
		MessageID: d.GetU64(),
	}
}

type OpponentLeft struct{}

func (m *OpponentLeft) Type() MessageType { return TypeOpponentLeft }

func (m *OpponentLeft) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeOpponentLeft]))
	s.PutType(TypeOpponentLeft)
	s.PutU8(0)
	return s.Bytes()
}

func decodeOpponentLeft(d *Deserializer) *OpponentLeft {
	d.GetU8()
	return &OpponentLeft{}
}

type Forfeit struct{}

func (m *Forfeit) Type() MessageType { return TypeForfeit }

func (m *Forfeit) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeForfeit]))
	s.PutType(TypeForfeit)
	s.PutU8(0)
	return s.Bytes()
}

func decodeForfeit(d *Deserializer) *Forfeit {
	d.GetU8()
	return &Forfeit{}
}

// Action carries one move (or a non-move signal such as an opponent
// timeout Header) in either direction. SrcY/SrcX and DstY/DstX are read
// and written in that order — Y before X — matching the field order
// documented for the wire layout; relaying must preserve every field
// except MessageID untouched.
type Action struct {
	ActionType     ActionType
	Color          PlayColor
	MessageID      uint64
	SrcL           int64
	SrcT           int64
	SrcBoardColor  int64
	SrcY           int64
	SrcX           int64
	DstL           int64
	DstT           int64
	DstBoardColor  int64
	DstY           int64
	DstX           int64
}

func (m *Action) Type() MessageType { return TypeAction }

func (m *Action) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeAction]))
	s.PutType(TypeAction)
	s.PutI64(int64(m.ActionType))
	s.PutI64(int64(m.Color))
	s.PutU64(m.MessageID)
	s.PutI64(m.SrcL)
	s.PutI64(m.SrcT)
	s.PutI64(m.SrcBoardColor)
	s.PutI64(m.SrcY)
	s.PutI64(m.SrcX)
	s.PutI64(m.DstL)
	s.PutI64(m.DstT)
	s.PutI64(m.DstBoardColor)
	s.PutI64(m.DstY)
	s.PutI64(m.DstX)
	return s.Bytes()
}

func decodeAction(d *Deserializer) *Action {
	return &Action{
		ActionType:    ActionType(d.GetI64()),
		Color:         PlayColor(d.GetI64()),
		MessageID:     d.GetU64(),
		SrcL:          d.GetI64(),
		SrcT:          d.GetI64(),
		SrcBoardColor: d.GetI64(),
		SrcY:          d.GetI64(),
		SrcX:          d.GetI64(),
		DstL:          d.GetI64(),
		DstT:          d.GetI64(),
		DstBoardColor: d.GetI64(),
		DstY:          d.GetI64(),
		DstX:          d.GetI64(),
	}
}

type MatchListRequest struct{}

func (m *MatchListRequest) Type() MessageType { return TypeMatchListRequest }

func (m *MatchListRequest) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeMatchListRequest]))
	s.PutType(TypeMatchListRequest)
	s.PutU8(0)
	return s.Bytes()
}

func decodeMatchListRequest(d *Deserializer) *MatchListRequest {
	d.GetU8()
	return &MatchListRequest{}
}

// PublicMatchEntry mirrors one slot of the public-opens section of
// MatchList.
type PublicMatchEntry struct {
	Color    Color
	Clock    Clock
	Variant  Variant
	Passcode int64
}

// HistoryMatchEntry mirrors one slot of the history section of MatchList.
type HistoryMatchEntry struct {
	Status        HistoryStatus
	Clock         Clock
	Variant       Variant
	Visibility    Visibility
	SecondsPassed int64
}

const matchListSlots = 13

// MatchList is always encoded at its full fixed length; unused slots are
// zero and the two count fields record the logically valid prefix.
type MatchList struct {
	HostColor      Color
	HostClock      Clock
	HostVariant    Variant
	HostVisibility Visibility
	HostPasscode   int64
	IsHost         int64

	PublicMatches  []PublicMatchEntry
	HistoryMatches []HistoryMatchEntry
}

func (m *MatchList) Type() MessageType { return TypeMatchList }

func (m *MatchList) Encode() []byte {
	s := NewSerializer(make([]byte, legalLength[TypeMatchList]))
	s.PutType(TypeMatchList)
	s.PutI64(int64(m.HostColor))
	s.PutI64(int64(m.HostClock))
	s.PutI64(int64(m.HostVariant))
	s.PutI64(int64(m.HostVisibility))
	s.PutI64(m.HostPasscode)
	s.PutI64(m.IsHost)

	for i := 0; i < matchListSlots; i++ {
		var e PublicMatchEntry
		if i < len(m.PublicMatches) {
			e = m.PublicMatches[i]
		}
		s.PutI64(int64(e.Color))
		s.PutI64(int64(e.Clock))
		s.PutI64(int64(e.Variant))
		s.PutI64(e.Passcode)
	}
	s.PutI64(int64(len(m.PublicMatches)))

	for i := 0; i < matchListSlots; i++ {
		var e HistoryMatchEntry
		if i < len(m.HistoryMatches) {
			e = m.HistoryMatches[i]
		}
		s.PutI64(int64(e.Status))
		s.PutI64(int64(e.Clock))
		s.PutI64(int64(e.Variant))
		s.PutI64(int64(e.Visibility))
		s.PutI64(e.SecondsPassed)
	}
	s.PutI64(int64(len(m.HistoryMatches)))

	return s.Bytes()
}

func decodeMatchList(d *Deserializer) *MatchList {
	m := &MatchList{
		HostColor:      Color(d.GetI64()),
		HostClock:      Clock(d.GetI64()),
		HostVariant:    Variant(d.GetI64()),
		HostVisibility: Visibility(d.GetI64()),
		HostPasscode:   d.GetI64(),
		IsHost:         d.GetI64(),
	}

	slots := make([]PublicMatchEntry, matchListSlots)
	for i := range slots {
		slots[i] = PublicMatchEntry{
			Color:    Color(d.GetI64()),
			Clock:    Clock(d.GetI64()),
			Variant:  Variant(d.GetI64()),
			Passcode: d.GetI64(),
		}
	}
	publicCount := d.GetI64()
	if publicCount == 0 {
		m.PublicMatches = nil
	} else if publicCount > 0 && int(publicCount) <= len(slots) {
		m.PublicMatches = slots[:publicCount]
	} else {
		m.PublicMatches = slots
	}

	hslots := make([]HistoryMatchEntry, matchListSlots)
	for i := range hslots {
		hslots[i] = HistoryMatchEntry{
			Status:        HistoryStatus(d.GetI64()),
			Clock:         Clock(d.GetI64()),
			Variant:       Variant(d.GetI64()),
			Visibility:    Visibility(d.GetI64()),
			SecondsPassed: d.GetI64(),
		}
	}
	historyCount := d.GetI64()
	if historyCount == 0 {
		m.HistoryMatches = nil
	} else if historyCount > 0 && int(historyCount) <= len(hslots) {
		m.HistoryMatches = hslots[:historyCount]
	} else {
		m.HistoryMatches = hslots
	}

	return m
}

// Decode validates the (type, length) pair against the legal-length
// table and dispatches to the matching decoder. payload includes the
// 8-byte type tag and excludes the length prefix.
func Decode(payload []byte) (Message, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("%w: payload too short for a type tag", ErrFraming)
	}

	d := NewDeserializer(payload)
	t := MessageType(d.GetI64())

	want, known := legalLength[t]
	if !known {
		return nil, fmt.Errorf("%w: unrecognized type %d", ErrFraming, int64(t))
	}
	if want != len(payload) {
		return nil, fmt.Errorf("%w: type %s expects length %d, got %d", ErrFraming, t, want, len(payload))
	}

	switch t {
	case TypeGreetClient:
		return decodeGreetClient(d), nil
	case TypeGreetServer:
		return decodeGreetServer(d), nil
	case TypeMatchCreateOrJoin:
		return decodeMatchCreateOrJoin(d), nil
	case TypeMatchCreateOrJoinResult:
		return decodeMatchCreateOrJoinResult(d), nil
	case TypeMatchCancel:
		return decodeMatchCancel(d), nil
	case TypeMatchCancelResult:
		return decodeMatchCancelResult(d), nil
	case TypeMatchStart:
		return decodeMatchStart(d), nil
	case TypeOpponentLeft:
		return decodeOpponentLeft(d), nil
	case TypeForfeit:
		return decodeForfeit(d), nil
	case TypeAction:
		return decodeAction(d), nil
	case TypeMatchListRequest:
		return decodeMatchListRequest(d), nil
	case TypeMatchList:
		return decodeMatchList(d), nil
	}

	return nil, fmt.Errorf("%w: unrecognized type %d", ErrFraming, int64(t))
}
