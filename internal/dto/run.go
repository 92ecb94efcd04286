package dto

import (
	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/service"
)

// CreateRunRequest is the body of POST /api/v1/runs
type CreateRunRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// ToInput converts the request into a domain input
func (r *CreateRunRequest) ToInput() *domain.RunInput {
	return &domain.RunInput{Name: r.Name}
}

// FailRunRequest is the body of POST /api/v1/runs/:id/fail
type FailRunRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// ArchiveResponse reports where a momentum log was archived
type ArchiveResponse struct {
	Object string `json:"object"`
}

// ReplayResponse reports a batch replay pass
type ReplayResponse struct {
	Report *service.RunReport `json:"report"`
}
