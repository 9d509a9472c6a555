package response

import "time"

type SweepFailure struct {
	VisitID string `json:"visit_id"`
	Rule    string `json:"rule"`
	Error   string `json:"error"`
}

// SweepResponse summarizes one missed-visit sweep run.
type SweepResponse struct {
	Missed        int            `json:"missed"`
	Warned        int            `json:"warned"`
	AutoCompleted int            `json:"auto_completed"`
	Notifications int            `json:"notifications"`
	Failed        []SweepFailure `json:"failed"`
	Skipped       bool           `json:"skipped"`
	RanAt         time.Time      `json:"ran_at"`
}
