package entity

import (
	"time"

	"github.com/google/uuid"
)

type GuestSpotType string

const (
	GuestSpotTypeGuest     GuestSpotType = "guest_spot"
	GuestSpotTypeGusmester GuestSpotType = "gusmester_spot"
)

type GuestSpotStatus string

const (
	GuestSpotStatusHeld     GuestSpotStatus = "reserved_for_host"
	GuestSpotStatusReleased GuestSpotStatus = "released_to_public"
	GuestSpotStatusUsed     GuestSpotStatus = "used"
)

// GuestSpot is a seat held back from public sale for a host employee's
// guest. The hold occupies session capacity until it is used or released.
type GuestSpot struct {
	BaseNoDelete
	SessionID      uuid.UUID       `db:"session_id"`
	HostEmployeeID uuid.UUID       `db:"host_employee_id"`
	SpotType       GuestSpotType   `db:"spot_type"`
	Status         GuestSpotStatus `db:"status"`
}

// HeldSpot is the scheduler's view of one held seat: the spot joined with
// its session timing and the holder's release preference.
type HeldSpot struct {
	SpotID            uuid.UUID
	SpotType          GuestSpotType
	SessionID         uuid.UUID
	SessionName       string
	SessionStart      time.Time
	EmployeeID        uuid.UUID
	EmployeeName      string
	EmployeeEmail     string
	ReleaseAfterHours int
}
