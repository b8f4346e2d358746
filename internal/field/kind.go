package field

import "strings"

// MU0 is the vacuum permeability in T·m/A (CODATA 2018).
const MU0 = 1.25663706212e-6

// Kind selects the physical quantity a kernel returns.
type Kind byte

const (
	B Kind = 'B' // flux density
	H Kind = 'H' // field intensity
	M Kind = 'M' // magnetization
	J Kind = 'J' // polarization
)

func (k Kind) String() string {
	switch k {
	case B, H, M, J:
		return string(rune(k))
	default:
		return "Kind(" + string(rune(k)) + ")"
	}
}

// Validate fails with an InvalidFieldKindError for anything outside B, H, M, J.
func (k Kind) Validate() error {
	switch k {
	case B, H, M, J:
		return nil
	}
	return &InvalidFieldKindError{Kind: k}
}

// ParseKind accepts "B", "H", "M" or "J" in either case.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if len(s) != 1 {
		return 0, &InvalidFieldKindError{Kind: 0, Input: s}
	}
	k := Kind(strings.ToUpper(s)[0])
	if err := k.Validate(); err != nil {
		return 0, &InvalidFieldKindError{Kind: k, Input: s}
	}
	return k, nil
}
