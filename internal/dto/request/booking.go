package request

type CreateBookingRequest struct {
	SessionID     string `json:"session_id" validate:"required,uuid4"`
	Spots         int    `json:"spots" validate:"required,min=1"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card punch_card manual"`
	PunchCardID   string `json:"punch_card_id,omitempty" validate:"omitempty,uuid4"`
}

type CancelBookingRequest struct {
	Reason       string `json:"reason,omitempty"`
	Refund       bool   `json:"refund,omitempty"`
	Compensation bool   `json:"compensation,omitempty"`
}

type AddSeatsRequest struct {
	ExtraSpots int `json:"extra_spots" validate:"required,min=1"`
}

type CompleteAddSeatsRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

type RemoveSeatsRequest struct {
	RemoveSpots int `json:"remove_spots" validate:"required,min=1"`
}

type MoveBookingRequest struct {
	NewSessionID string `json:"new_session_id" validate:"required,uuid4"`
	Reason       string `json:"reason" validate:"required"`
}
