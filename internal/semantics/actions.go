package semantics

// Action is one supported interaction as a wire bit.
type Action uint32

const (
	ActionTap                           Action = 1 << 0
	ActionLongPress                     Action = 1 << 1
	ActionScrollLeft                    Action = 1 << 2
	ActionScrollRight                   Action = 1 << 3
	ActionScrollUp                      Action = 1 << 4
	ActionScrollDown                    Action = 1 << 5
	ActionIncrease                      Action = 1 << 6
	ActionDecrease                      Action = 1 << 7
	ActionShowOnScreen                  Action = 1 << 8
	ActionMoveCursorForwardByCharacter  Action = 1 << 9
	ActionMoveCursorBackwardByCharacter Action = 1 << 10
	ActionSetSelection                  Action = 1 << 11
	ActionCopy                          Action = 1 << 12
	ActionCut                           Action = 1 << 13
	ActionPaste                         Action = 1 << 14
	ActionDidGainAccessibilityFocus     Action = 1 << 15
	ActionDidLoseAccessibilityFocus     Action = 1 << 16
	ActionCustomAction                  Action = 1 << 17
	ActionDismiss                       Action = 1 << 18
	ActionMoveCursorForwardByWord       Action = 1 << 19
	ActionMoveCursorBackwardByWord      Action = 1 << 20
)

var knownActions = []bitName[Action]{
	{ActionTap, "Tap"},
	{ActionLongPress, "LongPress"},
	{ActionScrollLeft, "ScrollLeft"},
	{ActionScrollRight, "ScrollRight"},
	{ActionScrollUp, "ScrollUp"},
	{ActionScrollDown, "ScrollDown"},
	{ActionIncrease, "Increase"},
	{ActionDecrease, "Decrease"},
	{ActionShowOnScreen, "ShowOnScreen"},
	{ActionMoveCursorForwardByCharacter, "MoveCursorForwardByCharacter"},
	{ActionMoveCursorBackwardByCharacter, "MoveCursorBackwardByCharacter"},
	{ActionSetSelection, "SetSelection"},
	{ActionCopy, "Copy"},
	{ActionCut, "Cut"},
	{ActionPaste, "Paste"},
	{ActionDidGainAccessibilityFocus, "DidGainAccessibilityFocus"},
	{ActionDidLoseAccessibilityFocus, "DidLoseAccessibilityFocus"},
	{ActionCustomAction, "CustomAction"},
	{ActionDismiss, "Dismiss"},
	{ActionMoveCursorForwardByWord, "MoveCursorForwardByWord"},
	{ActionMoveCursorBackwardByWord, "MoveCursorBackwardByWord"},
}

var KnownActionMask = encodeBits(AllActions())

func (a Action) String() string {
	return bitString(a, knownActions)
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func AllActions() []Action {
	out := make([]Action, len(knownActions))
	for i, k := range knownActions {
		out[i] = k.bit
	}
	return out
}

type Actions []Action

// DecodeActions is the action-mask counterpart of DecodeFlags.
func DecodeActions(mask uint32) (Actions, uint32) {
	set, residual := decodeBits(mask, knownActions)
	return Actions(set), residual
}

func (as Actions) Has(a Action) bool {
	for _, v := range as {
		if v == a {
			return true
		}
	}
	return false
}

func (as Actions) Mask() uint32 {
	return encodeBits([]Action(as))
}

func (as Actions) String() string {
	return joinBits([]Action(as), 0, knownActions)
}
