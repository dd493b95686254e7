package batch

import "github.com/joseph-ayodele/policy-extract/constants"

// transitions lists every allowed status change. done and error are terminal;
// a failed document is retried by intaking it again under a new id.
var transitions = map[constants.TaskStatus][]constants.TaskStatus{
	constants.TaskPending:    {constants.TaskProcessing},
	constants.TaskProcessing: {constants.TaskDone, constants.TaskError},
}

// CanTransition reports whether a task may move from one status to another.
func CanTransition(from, to constants.TaskStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
