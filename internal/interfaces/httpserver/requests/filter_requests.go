package requests

import (
	"model-lens/services/catalog-api/internal/domain/filter"
	"model-lens/services/catalog-api/internal/domain/ruleengine"
)

// RuleClauseRequest is one filter rule clause as sent by clients.
type RuleClauseRequest struct {
	Field    string  `json:"field" binding:"required"`
	Operator string  `json:"operator" binding:"required,oneof=eq ne gt gte lt lte in not_in contains starts_with ends_with"`
	Value    any     `json:"value"`
	Type     string  `json:"type" binding:"required,oneof=hard soft"`
	Weight   float64 `json:"weight" binding:"omitempty,gte=0"`
}

// CreateFilterRequest creates a saved filter.
type CreateFilterRequest struct {
	Name        string              `json:"name" binding:"required,max=255"`
	Description string              `json:"description" binding:"omitempty,max=2000"`
	Visibility  string              `json:"visibility" binding:"omitempty,oneof=private team public"`
	TeamID      string              `json:"team_id" binding:"omitempty,max=64"`
	Rules       []RuleClauseRequest `json:"rules" binding:"required,min=1,dive"`
}

// UpdateFilterRequest is a partial update; absent fields stay unchanged.
type UpdateFilterRequest struct {
	Name        *string             `json:"name" binding:"omitempty,max=255"`
	Description *string             `json:"description" binding:"omitempty,max=2000"`
	Visibility  *string             `json:"visibility" binding:"omitempty,oneof=private team public"`
	TeamID      *string             `json:"team_id" binding:"omitempty,max=64"`
	Rules       []RuleClauseRequest `json:"rules" binding:"omitempty,min=1,dive"`
}

// EvaluateFilterRequest bounds one evaluation run.
type EvaluateFilterRequest struct {
	Limit     int               `json:"limit" validate:"omitempty,gte=1"`
	ModelID   string            `json:"model_id" validate:"omitempty,max=128"`
	Artifacts map[string]string `json:"artifacts" validate:"omitempty,max=16"`
}

// ListFiltersQuery narrows and pages a filter listing.
type ListFiltersQuery struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	Visibility string `form:"visibility" binding:"omitempty,oneof=private team public"`
}

// ListRunsQuery pages a run listing.
type ListRunsQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// ToClauses converts request clauses to domain clauses.
func ToClauses(reqs []RuleClauseRequest) []ruleengine.Clause {
	if reqs == nil {
		return nil
	}
	clauses := make([]ruleengine.Clause, 0, len(reqs))
	for _, r := range reqs {
		clauses = append(clauses, ruleengine.Clause{
			Field:    r.Field,
			Operator: ruleengine.Operator(r.Operator),
			Value:    r.Value,
			Type:     ruleengine.ClauseType(r.Type),
			Weight:   r.Weight,
		})
	}
	return clauses
}

// VisibilityPtr converts an optional visibility string to the domain type.
func VisibilityPtr(s *string) *filter.Visibility {
	if s == nil {
		return nil
	}
	v := filter.Visibility(*s)
	return &v
}
