package model

import "time"

// Outcomes recorded on a RunSummary.
const (
	OutcomeRunning = "RUNNING"
	OutcomeOK      = "OK"
	OutcomeFailed  = "FAILED"
)

// RunSummary describes one simulation run.  It is created when the run
// starts and updated when every actor has returned.
//
// Fields:
//
//	ID                   – uuid of the run.
//	Groups, Tables       – size of the run.
//	ReceptionistRequests – requests serviced by the receptionist (2 x Groups on success).
//	WaiterRequests       – requests serviced by the waiter (2 x Groups on success).
//	OrdersCooked         – orders the chef turned into FOOD_READY.
//	Outcome              – RUNNING, OK or FAILED.
//	Error                – first fatal error, empty on success.
//	StartedAt            – when the actors were launched.
//	FinishedAt           – when the last actor returned (zero while running).
type RunSummary struct {
	ID                   string    `json:"id"`
	Groups               int       `json:"groups"`
	Tables               int       `json:"tables"`
	ReceptionistRequests int       `json:"receptionist_requests"`
	WaiterRequests       int       `json:"waiter_requests"`
	OrdersCooked         int       `json:"orders_cooked"`
	Outcome              string    `json:"outcome"`
	Error                string    `json:"error,omitempty"`
	StartedAt            time.Time `json:"started_at"`
	FinishedAt           time.Time `json:"finished_at,omitempty"`
}
