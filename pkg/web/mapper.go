package web

import (
	"net/http"
	"time"
)

// Response pairs an HTTP status with a JSON-encodable body.
type Response struct {
	StatusCode int
	Body       any
}

// MapStartOutcome translates a start outcome into its wire response. It is a
// pure function: no I/O, no templating. Success carries its own status; the
// error status belongs to the error branch alone.
func MapStartOutcome(outcome StartOutcome) Response {
	switch o := outcome.(type) {
	case StartSuccess:
		return Response{
			StatusCode: http.StatusOK,
			Body: StartSuccessBody{
				RequestID:    o.RequestID,
				ExecutionARN: o.ExecutionID,
				StartDate:    o.StartDate.UTC().Format(time.RFC3339),
			},
		}
	case StartError:
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body: StartErrorBody{
				RequestID: o.RequestID,
				Message:   o.Message,
			},
		}
	default:
		// The outcome union is sealed; this is unreachable.
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body:       StartErrorBody{Message: "unknown start outcome"},
		}
	}
}
