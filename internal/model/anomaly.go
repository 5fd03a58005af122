package model

import "time"

// Anomaly is one detected operational problem, attributed to a single pallet
// and the rule that flagged it. The anomaly list is append-only output.
type Anomaly struct {
	DetectedAt time.Time `json:"detected_at"`
	PalletID   string    `json:"pallet_id"`
	RuleName   string    `json:"rule_name"`
	Type       RuleType  `json:"rule_type"`
	Location   string    `json:"location"`
	Message    string    `json:"message"`
	Precedence int       `json:"precedence"`
}

// ExclusionEntry records that a higher-authority rule has already explained
// a pallet's problem, so causally-dependent lower-authority rules should not
// re-flag it.
type ExclusionEntry struct {
	PalletID   string   `json:"pallet_id"`
	RuleName   string   `json:"rule_name"`
	Type       RuleType `json:"rule_type"`
	Precedence int      `json:"precedence"`
}
