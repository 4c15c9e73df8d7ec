package responses

import (
	"model-lens/services/catalog-api/internal/domain/filter"
)

// FilterListResponse is a paginated filter listing.
type FilterListResponse struct {
	Object   string                `json:"object"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Data     []*filter.SavedFilter `json:"data"`
}

func NewFilterListResponse(filters []*filter.SavedFilter, total int64, page, pageSize int) FilterListResponse {
	if filters == nil {
		filters = []*filter.SavedFilter{}
	}
	return FilterListResponse{
		Object:   "list",
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Data:     filters,
	}
}

// RunListResponse is a paginated run listing, most recent first.
type RunListResponse struct {
	Object   string        `json:"object"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Data     []*filter.Run `json:"data"`
}

func NewRunListResponse(runs []*filter.Run, total int64, page, pageSize int) RunListResponse {
	if runs == nil {
		runs = []*filter.Run{}
	}
	return RunListResponse{
		Object:   "list",
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Data:     runs,
	}
}
