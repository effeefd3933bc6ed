package entity

import (
	"github.com/google/uuid"
)

// Employee is a staff member who can host sessions and hold guest spots.
// ReleaseAfterHours is how long before session start their unused guest
// spots are returned to public sale.
type Employee struct {
	Base
	Name              string `db:"name"`
	Email             string `db:"email"`
	ReleaseAfterHours int    `db:"release_after_hours"`
	Points            int    `db:"points"`
}

// EmployeePointsEntry logs one points award. The (employee, session, reason)
// tuple deduplicates awards replayed by the scheduler.
type EmployeePointsEntry struct {
	BaseSimple
	EmployeeID uuid.UUID  `db:"employee_id"`
	Amount     int        `db:"amount"`
	Reason     string     `db:"reason"`
	SessionID  *uuid.UUID `db:"session_id"`
}
