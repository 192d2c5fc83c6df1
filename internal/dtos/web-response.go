package dtos

// Response is the envelope of every HTTP answer. Errors is set only on
// failures, and Data is then null.
type Response[T any] struct {
	Message   string         `json:"message"`
	Data      T              `json:"data"`
	RequestID string         `json:"request_id,omitempty"`
	Errors    *ErrorResponse `json:"errors,omitempty"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func Failure(requestID string, detail ErrorResponse) Response[any] {
	return Response[any]{
		Message:   "Error occur",
		RequestID: requestID,
		Errors:    &detail,
	}
}
