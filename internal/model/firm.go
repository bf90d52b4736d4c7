package model

import "time"

// Regime identifies which authorization taxonomy a firm is registered under.
type Regime string

const (
	// RegimeDomestic covers firms licensed by the French supervisor (ACPR
	// codes for activities, services and instruments).
	RegimeDomestic Regime = "domestic"
	// RegimePassporting covers EU firms operating in France under an inbound
	// passport, declared with the CB service/instrument codes.
	RegimePassporting Regime = "passporting"
)

// Firm is one registry entry, keyed by its CIB. Re-processing the same CIB
// replaces the stored record rather than duplicating it.
type Firm struct {
	CIB               int        `json:"cib"`
	Name              string     `json:"name"`
	TradeName         string     `json:"trade_name,omitempty"`
	Category          string     `json:"category"`
	LegalForm         string     `json:"legal_form,omitempty"`
	SIREN             string     `json:"siren,omitempty"`
	LEI               string     `json:"lei,omitempty"`
	AuthorizationType string     `json:"authorization_type,omitempty"`
	Status            string     `json:"status,omitempty"`
	Address           string     `json:"address,omitempty"`
	Postcode          string     `json:"postcode,omitempty"`
	City              string     `json:"city,omitempty"`
	Country           string     `json:"country,omitempty"`
	LastUpdate        *time.Time `json:"last_update,omitempty"`

	Regime     Regime         `json:"regime"`
	Activities []ActivityCode `json:"activities,omitempty"`
	Services   ServiceSet     `json:"services,omitempty"`
}

// RankedFirm pairs a firm with the score computed for it. The score is a
// ranking aid, not a registry fact, so it lives outside Firm.
type RankedFirm struct {
	Firm  *Firm `json:"firm"`
	Score int   `json:"score"`
}

// Run records one ingest batch over the saved registry fragments.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Processed  int       `json:"processed"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}
