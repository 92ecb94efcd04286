package dto

import "github.com/tofscope/tofscope/internal/domain"

// MaxBatchEvents bounds the number of events in one request
const MaxBatchEvents = 10000

// EventBatchRequest is the body of the batch event endpoints
type EventBatchRequest struct {
	Events []domain.EventInput `json:"events" validate:"required,min=1,max=10000,dive"`
}

// EventResponse is the result of one synchronously processed event
type EventResponse struct {
	Summary *domain.EventSummary `json:"summary"`
}

// EnqueueResponse lists the queued task IDs
type EnqueueResponse struct {
	TaskIDs []string `json:"taskIds"`
}
