// Package queue streams state snapshots over RabbitMQ: a publisher used as a
// snapshot sink by a running simulation, and a consumer that appends the
// stream to a log file on another machine.
package queue

import "github.com/iliyamo/restaurant-sim/internal/model"

// StateQueueName is the durable queue snapshots are published to.
const StateQueueName = "restaurant.state"

// StateSnapshotEvent is published after every status mutation of a run.
// Line carries the formatted log line so consumers that only print do not
// need the state layout.
type StateSnapshotEvent struct {
	RunID       string          `json:"run_id"`
	Seq         uint64          `json:"seq"`
	Line        string          `json:"line"`
	State       model.FullState `json:"state"`
	PublishedAt string          `json:"published_at"`
}
