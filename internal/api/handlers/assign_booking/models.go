package assign_booking

// AssignBookingRequest HTTP request model
type AssignBookingRequest struct {
	WorkerID int64 `json:"workerId"`
}
