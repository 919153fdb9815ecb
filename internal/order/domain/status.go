package domain

// transitions is the closed set of legal status edges. Cancellation is
// reachable from every non-terminal state; completed and cancelled have no
// outgoing edges.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusServed, StatusCancelled},
	StatusServed:    {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are legal from s.
func IsTerminal(s OrderStatus) bool {
	return len(transitions[s]) == 0 && ValidStatus(s)
}

// CanTransition reports whether the edge from -> to is in the allowed set.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
