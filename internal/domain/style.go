package domain

import "strings"

// DesignStyle is the closed arrangement policy for a bracelet layout.
type DesignStyle int

const (
	// StyleDefault is the even-split fallback for unspecified or
	// unrecognized styles.
	StyleDefault DesignStyle = iota
	// StyleSingle puts every bead on the primary stone.
	StyleSingle
	// StyleDual splits 60/40 between primary and secondary.
	StyleDual
	// StyleAccentTop places a single primary accent bead among a ring of
	// secondary beads.
	StyleAccentTop
)

func (s DesignStyle) String() string {
	switch s {
	case StyleSingle:
		return "single"
	case StyleDual:
		return "dual"
	case StyleAccentTop:
		return "accent_top"
	default:
		return "default"
	}
}

// ParseDesignStyle maps a wire value to a style. Unrecognized or empty
// values fall back to StyleDefault rather than erroring.
func ParseDesignStyle(v string) DesignStyle {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "single":
		return StyleSingle
	case "dual", "double":
		return StyleDual
	case "accent_top", "accent-top", "accenttop":
		return StyleAccentTop
	default:
		return StyleDefault
	}
}
