package opensched

// QueueDiscipline picks the head of the wait queue from a task-table
// snapshot. It is a pure function of the task table, so adding a new
// policy is additive: it never needs to touch admission.
type QueueDiscipline interface {
	HeadOfQueue(tt *TaskTable) Ttask
}

// FIFODiscipline is the only bundled queue policy: the lowest task id
// whose state is InQueue.
type FIFODiscipline struct{}

func (FIFODiscipline) HeadOfQueue(tt *TaskTable) Ttask {
	for _, t := range tt.All() {
		if t.WaitingInQueue() {
			return t.ID
		}
	}
	return InvalidTask
}

// ParseQueuePolicy validates a configured queue-policy name into a
// QueueDiscipline, failing fatally on anything unrecognized.
func ParseQueuePolicy(name string) (QueueDiscipline, error) {
	switch name {
	case "FIFO":
		return FIFODiscipline{}, nil
	default:
		return nil, &ConfigurationError{Msg: "unknown queuing policy: " + name}
	}
}
