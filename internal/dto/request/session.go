package request

type CreateSessionRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Location        string `json:"location" validate:"required"`
	StartTime       string `json:"start_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=15"`
	Capacity        int    `json:"capacity" validate:"required,min=1"`
	PricePerSpot    int64  `json:"price_per_spot" validate:"required,min=1"`
	IsPrivate       bool   `json:"is_private"`
	ThemeID         string `json:"theme_id,omitempty" validate:"omitempty,uuid4"`
	HostEmployeeID  string `json:"host_employee_id,omitempty" validate:"omitempty,uuid4"`
}

type UpdateSessionRequest struct {
	Name            string `json:"name,omitempty"`
	Location        string `json:"location,omitempty"`
	StartTime       string `json:"start_time,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty" validate:"omitempty,min=15"`
	Capacity        int    `json:"capacity,omitempty" validate:"omitempty,min=1"`
	PricePerSpot    int64  `json:"price_per_spot,omitempty" validate:"omitempty,min=1"`
}
