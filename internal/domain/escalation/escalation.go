package escalation

import "context"

// Result counts the items moved to escalated by one sweep.
type Result struct {
	Corrections int `json:"corrections"`
	Exceptions  int `json:"exceptions"`
}

type Service interface {
	// EscalatePending escalates every submitted correction and every pending
	// exception, writing one audit entry per item.
	EscalatePending(ctx context.Context) (Result, error)
}
