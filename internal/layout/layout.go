// Package layout turns a ranked stone recommendation, a wrist measurement
// and a design style into concrete per-stone bead counts and positions.
// It is pure: no I/O, no state, no randomness.
package layout

import (
	"github.com/cw-satou/astral-backend/internal/domain"
)

const (
	// minTotalBeads is the manufacturing floor on the sizing-derived total.
	minTotalBeads = 12
	// minSurroundBeads is the separate floor on the ring of secondary beads
	// in the accent-top style. The two minimums are independent and may
	// disagree; accent-top output can exceed the nominal total.
	minSurroundBeads = 11

	dualPrimaryShare = 0.6

	// slackMM models elastic/clasp slack added to the wrist circumference.
	slackMM = 10
)

// Result is one computed bracelet layout. Counts across Stones sum to
// TotalBeads for every style except accent-top (see minSurroundBeads) and
// the no-candidates case, which carries an empty layout.
type Result struct {
	Stones     []domain.Stone `json:"stones"`
	TotalBeads int            `json:"total_beads"`
	Style      string         `json:"design_style"`
	DesignText string         `json:"design_text"`
}

// TotalBeadCount computes the sizing-derived bead target:
// floor((wrist_cm*10 + slack_mm) / bead_mm), clamped to the manufacturing
// minimum of 12.
func TotalBeadCount(wristCM float64, beadMM int) int {
	if beadMM <= 0 {
		beadMM = domain.DefaultBeadSizeMM
	}
	n := int((wristCM*10 + slackMM) / float64(beadMM))
	if n < minTotalBeads {
		return minTotalBeads
	}
	return n
}

// Build distributes beads over the ranked stones according to style. Only
// the first two entries of stones are consulted; with a single entry the
// secondary slot self-pairs to the primary. An empty stone list is a normal
// outcome and yields an empty layout with a fixed message.
func Build(stones []domain.Stone, sizing domain.Sizing, style domain.DesignStyle) Result {
	sizing = sizing.Normalized()

	if len(stones) == 0 {
		return Result{
			Stones:     []domain.Stone{},
			TotalBeads: 0,
			Style:      style.String(),
			DesignText: noCandidatesText,
		}
	}

	total := TotalBeadCount(sizing.WristInnerCM, sizing.BeadSizeMM)

	primary := stones[0]
	secondary := primary
	if len(stones) > 1 {
		secondary = stones[1]
	}

	var placed []domain.Stone
	switch style {
	case domain.StyleSingle:
		primary.Count = total
		primary.Position = domain.PositionTop
		placed = []domain.Stone{primary}

	case domain.StyleDual:
		primary.Count = int(float64(total) * dualPrimaryShare)
		secondary.Count = total - primary.Count
		primary.Position = domain.PositionTop
		secondary.Position = domain.PositionSide
		placed = []domain.Stone{primary, secondary}

	case domain.StyleAccentTop:
		primary.Count = 1
		primary.Position = domain.PositionAccent
		secondary.Count = total - 1
		if secondary.Count < minSurroundBeads {
			secondary.Count = minSurroundBeads
		}
		secondary.Position = domain.PositionTop
		placed = []domain.Stone{primary, secondary}

	case domain.StyleDefault:
		fallthrough
	default:
		primary.Count = total / 2
		secondary.Count = total - primary.Count
		primary.Position = domain.PositionTop
		secondary.Position = domain.PositionSide
		placed = []domain.Stone{primary, secondary}
	}

	return Result{
		Stones:     placed,
		TotalBeads: total,
		Style:      style.String(),
		DesignText: renderDesignText(primary, secondary, sizing, style),
	}
}
