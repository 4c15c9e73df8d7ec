package filter

import domain "model-lens/services/catalog-api/internal/domain"

// CanAccess decides whether a requester may read or evaluate a saved
// filter. Pure and total: owner always, public always, team when the
// requester shares the filter's team, admins for any filter.
func CanAccess(p domain.Principal, f *SavedFilter) bool {
	if f == nil {
		return false
	}
	if p.IsAdmin {
		return true
	}
	if f.OwnerID == p.UserID && p.UserID != "" {
		return true
	}
	if f.Visibility == VisibilityPublic {
		return true
	}
	if f.Visibility == VisibilityTeam && f.TeamID != "" && f.TeamID == p.TeamID {
		return true
	}
	return false
}

// CanMutate restricts update and delete to the owner.
func CanMutate(p domain.Principal, f *SavedFilter) bool {
	return f != nil && p.UserID != "" && f.OwnerID == p.UserID
}
