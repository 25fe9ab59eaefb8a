package appointment

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether an appointment in this status still holds its slot.
func (s Status) Active() bool {
	return s.Valid() && s != StatusCancelled
}

// InitialStatus is the status every successful reservation starts in.
func InitialStatus() Status {
	return StatusScheduled
}
