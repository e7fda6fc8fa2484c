package appointment

// validStatuses is the whitelist for status inputs. Anything else is
// rejected before any mutation.
var validStatuses = map[Status]bool{
	StatusScheduled:  true,
	StatusConfirmed:  true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
	StatusNoShow:     true,
}

// transitions encodes the legal status graph:
//
//	scheduled -> confirmed -> in_progress -> completed
//	scheduled|confirmed -> cancelled
//	scheduled|confirmed -> no_show
//
// completed, cancelled and no_show are terminal.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted},
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s Status) bool { return validStatuses[s] }

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// queueEffect returns the queue status a transition into `to` implies, or ""
// when the queue entry is untouched. Entering any terminal state marks the
// entry completed; "completed" here means "left the queue", not that a
// consultation happened.
func queueEffect(to Status) QueueStatus {
	switch to {
	case StatusInProgress:
		return QueueInConsultation
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return QueueCompleted
	default:
		return ""
	}
}
