package notify

import (
	"time"

	"screenplay-collab/internal/domain"
)

// Event is what services emit when something other members care about
// happened on a script.
type Event struct {
	Type       domain.NotificationType `json:"type"`
	ScriptID   uint64                  `json:"script_id"`
	ActorID    uint64                  `json:"actor_id"`
	Recipients []uint64                `json:"recipients"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	Timestamp  time.Time               `json:"timestamp"`
}

// recipients returns the unique recipients of e without the actor
func (e Event) recipients() []uint64 {
	seen := make(map[uint64]struct{}, len(e.Recipients))
	out := make([]uint64, 0, len(e.Recipients))
	for _, id := range e.Recipients {
		if id == 0 || id == e.ActorID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
