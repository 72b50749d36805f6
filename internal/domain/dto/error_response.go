package dto

import "time"

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid start month"`
	ErrorDetails string    `json:"error_details,omitempty" example:"invalid month code: \"13-2024\""`
	Timestamp    time.Time `json:"timestamp" example:"2024-06-14T10:00:00Z"`
}

// Error implements the error interface.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse stamped with the current UTC time.
// err may be nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
