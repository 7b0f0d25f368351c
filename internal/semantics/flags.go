package semantics

// Flag is one boolean node property as a wire bit. Bit 19 (multiline) is not
// interpreted and decodes as an unknown bit.
type Flag uint32

const (
	FlagHasCheckedState            Flag = 1 << 0
	FlagIsChecked                  Flag = 1 << 1
	FlagIsSelected                 Flag = 1 << 2
	FlagIsButton                   Flag = 1 << 3
	FlagIsTextField                Flag = 1 << 4
	FlagIsFocused                  Flag = 1 << 5
	FlagHasEnabledState            Flag = 1 << 6
	FlagIsEnabled                  Flag = 1 << 7
	FlagIsInMutuallyExclusiveGroup Flag = 1 << 8
	FlagIsHeader                   Flag = 1 << 9
	FlagIsObscured                 Flag = 1 << 10
	FlagScopesRoute                Flag = 1 << 11
	FlagNamesRoute                 Flag = 1 << 12
	FlagIsHidden                   Flag = 1 << 13
	FlagIsImage                    Flag = 1 << 14
	FlagIsLiveRegion               Flag = 1 << 15
	FlagHasToggledState            Flag = 1 << 16
	FlagIsToggled                  Flag = 1 << 17
	FlagHasImplicitScrolling       Flag = 1 << 18
	FlagIsReadOnly                 Flag = 1 << 20
	FlagIsFocusable                Flag = 1 << 21
	FlagIsLink                     Flag = 1 << 22
)

var knownFlags = []bitName[Flag]{
	{FlagHasCheckedState, "HasCheckedState"},
	{FlagIsChecked, "IsChecked"},
	{FlagIsSelected, "IsSelected"},
	{FlagIsButton, "IsButton"},
	{FlagIsTextField, "IsTextField"},
	{FlagIsFocused, "IsFocused"},
	{FlagHasEnabledState, "HasEnabledState"},
	{FlagIsEnabled, "IsEnabled"},
	{FlagIsInMutuallyExclusiveGroup, "IsInMutuallyExclusiveGroup"},
	{FlagIsHeader, "IsHeader"},
	{FlagIsObscured, "IsObscured"},
	{FlagScopesRoute, "ScopesRoute"},
	{FlagNamesRoute, "NamesRoute"},
	{FlagIsHidden, "IsHidden"},
	{FlagIsImage, "IsImage"},
	{FlagIsLiveRegion, "IsLiveRegion"},
	{FlagHasToggledState, "HasToggledState"},
	{FlagIsToggled, "IsToggled"},
	{FlagHasImplicitScrolling, "HasImplicitScrolling"},
	{FlagIsReadOnly, "IsReadOnly"},
	{FlagIsFocusable, "IsFocusable"},
	{FlagIsLink, "IsLink"},
}

// KnownFlagMask has every enumerated flag bit set.
var KnownFlagMask = encodeBits(AllFlags())

func (f Flag) String() string {
	return bitString(f, knownFlags)
}

func (f Flag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// AllFlags lists the enumerated flags in decode order.
func AllFlags() []Flag {
	out := make([]Flag, len(knownFlags))
	for i, k := range knownFlags {
		out[i] = k.bit
	}
	return out
}

// Flags is a decoded flag set in enumeration order.
type Flags []Flag

// DecodeFlags splits a raw flag mask into the enumerated flags it carries and
// the residual bits no enumerated flag claimed.
func DecodeFlags(mask uint32) (Flags, uint32) {
	set, residual := decodeBits(mask, knownFlags)
	return Flags(set), residual
}

func (fs Flags) Has(f Flag) bool {
	for _, v := range fs {
		if v == f {
			return true
		}
	}
	return false
}

// Mask re-encodes the set into its wire bits.
func (fs Flags) Mask() uint32 {
	return encodeBits([]Flag(fs))
}

func (fs Flags) String() string {
	return joinBits([]Flag(fs), 0, knownFlags)
}
