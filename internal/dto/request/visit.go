package request

type CreateVisitRequest struct {
	StoreID         string  `json:"store_id" validate:"required,uuid"`
	DiscountID      *string `json:"discount_id,omitempty" validate:"omitempty,uuid"`
	ScheduledDate   string  `json:"scheduled_date" validate:"required,isodate"`
	ScheduledTime   string  `json:"scheduled_time" validate:"required,hhmm"`
	NumberOfPeople  int     `json:"number_of_people" validate:"required,min=1,max=20"`
	CustomerNotes   *string `json:"customer_notes,omitempty" validate:"omitempty,max=1000"`
	SpecialRequests *string `json:"special_requests,omitempty" validate:"omitempty,max=1000"`
}

// ScanRequest selects the scan step. An empty action lets the server pick the
// next one for the visit.
type ScanRequest struct {
	Action string `json:"action,omitempty"`
}

type ScanQRRequest struct {
	QRData string `json:"qr_data" validate:"required"`
}

type CancelVisitRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type CancelAllVisitsRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// EditVisitRequest carries a partial update. Keys holds every top-level key
// of the submitted body so unknown fields can be rejected by name.
type EditVisitRequest struct {
	ScheduledDate   *string `json:"scheduled_date,omitempty"`
	ScheduledTime   *string `json:"scheduled_time,omitempty"`
	NumberOfPeople  *int    `json:"number_of_people,omitempty"`
	CustomerNotes   *string `json:"customer_notes,omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty"`

	Keys []string `json:"-"`
}

type RescheduleVisitRequest struct {
	NewDate       string  `json:"new_date" validate:"required,isodate"`
	NewTime       string  `json:"new_time" validate:"required,hhmm"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=500"`
	RescheduledBy string  `json:"rescheduled_by,omitempty" validate:"omitempty,max=100"`
}

type UpdateVisitStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=SCHEDULED CHECKED_IN COMPLETED MISSED CANCELLED"`
}

type UseDiscountRequest struct {
	VisitID string `json:"visit_id" validate:"required,uuid"`
}

type VisitListRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=SCHEDULED CHECKED_IN COMPLETED MISSED CANCELLED"`
	Date   string `json:"date" validate:"omitempty,isodate"`
}
