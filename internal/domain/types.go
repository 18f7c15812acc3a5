package domain

import "time"

// StonePosition is where a stone sits in the finished bracelet.
type StonePosition string

const (
	PositionTop    StonePosition = "top"
	PositionSide   StonePosition = "side"
	PositionBase   StonePosition = "base"
	PositionAccent StonePosition = "accent"
)

// Stone is one bead material with the reason it was recommended. Count and
// Position are assigned by the layout step, not by input.
type Stone struct {
	Name     string        `json:"name"`
	Reason   string        `json:"reason,omitempty"`
	Count    int           `json:"count"`
	Position StonePosition `json:"position,omitempty"`
}

// Sizing is the wrist/bead measurement pair driving the bead count.
type Sizing struct {
	WristInnerCM float64
	BeadSizeMM   int
}

const (
	DefaultWristInnerCM = 15.0
	DefaultBeadSizeMM   = 8
)

func DefaultSizing() Sizing {
	return Sizing{WristInnerCM: DefaultWristInnerCM, BeadSizeMM: DefaultBeadSizeMM}
}

// Normalized replaces non-positive measurements with the defaults.
func (s Sizing) Normalized() Sizing {
	if s.WristInnerCM <= 0 {
		s.WristInnerCM = DefaultWristInnerCM
	}
	if s.BeadSizeMM <= 0 {
		s.BeadSizeMM = DefaultBeadSizeMM
	}
	return s
}

// OracleCard is the randomly drawn card attached to a reading.
type OracleCard struct {
	Name     string `json:"name"`
	Position string `json:"position"` // upright / reversed
	ImageURL string `json:"image_url,omitempty"`
}

// Reading is the structured result of one generative fortune-telling call.
// Stones is ranked by recommendation strength; index 0 is the primary.
type Reading struct {
	Summary       string      `json:"reading"`
	HoroscopeFull string      `json:"horoscope_full,omitempty"`
	Past          string      `json:"past,omitempty"`
	Present       string      `json:"present,omitempty"`
	Future        string      `json:"future,omitempty"`
	ElementLack   string      `json:"element_lack,omitempty"`
	ElementDetail string      `json:"element_detail,omitempty"`
	Stones        []Stone     `json:"stones"`
	DesignConcept string      `json:"design_concept,omitempty"`
	DesignText    string      `json:"design_text,omitempty"`
	SalesCopy     string      `json:"sales_copy,omitempty"`
	Oracle        *OracleCard `json:"oracle_card,omitempty"`
	ImageURLs     []string    `json:"image_urls,omitempty"`
}

// PrimaryStoneName returns the top-ranked stone name, or "".
func (r *Reading) PrimaryStoneName() string {
	if r == nil || len(r.Stones) == 0 {
		return ""
	}
	return r.Stones[0].Name
}

// Birth is the birth data the horoscope is cast from.
type Birth struct {
	Date  string `json:"date"`
	Time  string `json:"time,omitempty"`
	Place string `json:"place,omitempty"`
}

// DiagnoseInput is the validated input to one diagnosis.
type DiagnoseInput struct {
	Gender     string
	Concerns   []string
	Problem    string
	DesignPref string
	Birth      Birth
	Sizing     Sizing
	LineUserID string
}

// BraceletInput drives the second-phase layout call.
type BraceletInput struct {
	DiagnosisID string
	Stones      []Stone
	Sizing      Sizing
	Style       DesignStyle
}

// DiagnosisRecord is the row persisted per diagnosis. Columns mirror the
// order sheet; LineUserID and Purchased are filled in later by out-of-band
// processes and are blank/false at creation.
type DiagnosisRecord struct {
	ID            string
	CreatedAt     time.Time
	StoneName     string
	ElementLack   string
	HoroscopeFull string
	Past          string
	Present       string
	Future        string
	ElementDetail string
	OracleName    string
	OraclePos     string
	ProductSlug   string
	LineUserID    string
	Purchased     bool
}

// OrderSummary is the derived, read-only order view. Never persisted as its
// own entity; regenerated per request from its source fields.
type OrderSummary struct {
	OrderLine    string `json:"order_line"`
	InternalNote string `json:"internal_note"`
	SalesCopy    string `json:"sales_copy"`
}
