package wire

// MessageType is the leading 8-byte tag of every frame payload.
type MessageType int64

const (
	TypeGreetClient             MessageType = 1
	TypeGreetServer             MessageType = 2
	TypeMatchCreateOrJoin       MessageType = 3
	TypeMatchCreateOrJoinResult MessageType = 4
	TypeMatchCancel             MessageType = 5
	TypeMatchCancelResult       MessageType = 6
	TypeMatchStart              MessageType = 7
	TypeOpponentLeft            MessageType = 9
	TypeForfeit                 MessageType = 10
	TypeAction                  MessageType = 11
	TypeMatchListRequest        MessageType = 12
	TypeMatchList               MessageType = 13
)

func (t MessageType) String() string {
	switch t {
	case TypeGreetClient:
		return "greet-client"
	case TypeGreetServer:
		return "greet-server"
	case TypeMatchCreateOrJoin:
		return "match-create-or-join"
	case TypeMatchCreateOrJoinResult:
		return "match-create-or-join-result"
	case TypeMatchCancel:
		return "match-cancel"
	case TypeMatchCancelResult:
		return "match-cancel-result"
	case TypeMatchStart:
		return "match-start"
	case TypeOpponentLeft:
		return "opponent-left"
	case TypeForfeit:
		return "forfeit"
	case TypeAction:
		return "action"
	case TypeMatchListRequest:
		return "match-list-request"
	case TypeMatchList:
		return "match-list"
	}
	return "unknown"
}

// legalLength maps every recognized type to its one legal payload length,
// including the 8-byte type tag. A (type, length) pair not matching this
// table is a framing error.
var legalLength = map[MessageType]int{
	TypeGreetClient:             56,
	TypeGreetServer:             56,
	TypeMatchCreateOrJoin:       48,
	TypeMatchCreateOrJoinResult: 64,
	TypeMatchCancel:             9,
	TypeMatchCancelResult:       16,
	TypeMatchStart:              48,
	TypeOpponentLeft:            9,
	TypeForfeit:                 9,
	TypeAction:                  112,
	TypeMatchListRequest:        9,
	TypeMatchList:               1008,
}

// MinLength and MaxLength bound the legal length prefix of any frame.
const (
	MinLength = 9
	MaxLength = 1008
)

// MaxFrameLength is a DoS backstop independent of MaxLength: a length
// prefix beyond it is rejected before any read buffer is allocated for it.
const MaxFrameLength = 4096

// Color (advertisement form): None, Random, White, Black.
type Color int64

const (
	ColorNone   Color = 0
	ColorRandom Color = 1
	ColorWhite  Color = 2
	ColorBlack  Color = 3
)

// PlayColor (in-play form): White, Black.
type PlayColor int64

const (
	PlayWhite PlayColor = 0
	PlayBlack PlayColor = 1
)

// Clock is the advertised time-control category.
type Clock int64

const (
	ClockNone   Clock = 0
	ClockNo     Clock = 1
	ClockShort  Clock = 2
	ClockMedium Clock = 3
	ClockLong   Clock = 4
)

// Visibility controls whether a created match is listed publicly.
type Visibility int64

const (
	VisibilityPublic  Visibility = 1
	VisibilityPrivate Visibility = 2
)

// Variant identifies a game-rule profile; the server is agnostic to its
// meaning beyond the well-known tags and an optional allow-list.
type Variant int64

const (
	VariantStandard Variant = 1
	VariantRandom   Variant = 34
	VariantTurnZero Variant = 35
)

// ActionType tags a C2SOrS2CAction frame.
type ActionType int64

const (
	ActionMove               ActionType = 1
	ActionUndoMove           ActionType = 2
	ActionSubmitMoves        ActionType = 3
	ActionResetPuzzle        ActionType = 4
	ActionDisplayCheckReason ActionType = 5
	ActionHeader             ActionType = 6
)

// HistoryStatus tags a HistoryEntry as finished or (rarely) still active
// at snapshot time.
type HistoryStatus int64

const (
	HistoryCompleted  HistoryStatus = 0
	HistoryInProgress HistoryStatus = 1
)
