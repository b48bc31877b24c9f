package record

// Status is a record's position in the production pipeline.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusCompleted  Status = "completed"
)

// Pipeline lists the statuses in production order.
var Pipeline = []Status{StatusPending, StatusInProgress, StatusReview, StatusCompleted}

// Valid reports whether s is one of the pipeline statuses.
func (s Status) Valid() bool {
	for _, p := range Pipeline {
		if s == p {
			return true
		}
	}
	return false
}

// OrDefault returns s, or StatusPending when s is empty.
func (s Status) OrDefault() Status {
	if s == "" {
		return StatusPending
	}
	return s
}

// Next returns the following pipeline status. Completed is terminal and
// returns itself; ok is false when there is no further step.
func (s Status) Next() (next Status, ok bool) {
	s = s.OrDefault()
	for i, p := range Pipeline {
		if p == s && i+1 < len(Pipeline) {
			return Pipeline[i+1], true
		}
	}
	return s, false
}

// Label returns a human-readable status name.
func (s Status) Label() string {
	switch s.OrDefault() {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusReview:
		return "Review"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}
