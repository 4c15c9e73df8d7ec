package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domain "model-lens/services/catalog-api/internal/domain"
)

func TestCanAccess(t *testing.T) {
	owner := domain.Principal{UserID: "u1", TeamID: "t1"}
	teammate := domain.Principal{UserID: "u2", TeamID: "t1"}
	outsider := domain.Principal{UserID: "u3", TeamID: "t2"}
	admin := domain.Principal{UserID: "u4", IsAdmin: true}
	anonymous := domain.Principal{}

	tests := []struct {
		name   string
		p      domain.Principal
		filter *SavedFilter
		want   bool
	}{
		{"owner private", owner, &SavedFilter{OwnerID: "u1", Visibility: VisibilityPrivate}, true},
		{"outsider private", outsider, &SavedFilter{OwnerID: "u1", Visibility: VisibilityPrivate}, false},
		{"anyone public", outsider, &SavedFilter{OwnerID: "u1", Visibility: VisibilityPublic}, true},
		{"anonymous public", anonymous, &SavedFilter{OwnerID: "u1", Visibility: VisibilityPublic}, true},
		{"teammate team", teammate, &SavedFilter{OwnerID: "u1", TeamID: "t1", Visibility: VisibilityTeam}, true},
		{"outsider team", outsider, &SavedFilter{OwnerID: "u1", TeamID: "t1", Visibility: VisibilityTeam}, false},
		{"team filter without team id", teammate, &SavedFilter{OwnerID: "u1", Visibility: VisibilityTeam}, false},
		{"admin override", admin, &SavedFilter{OwnerID: "u1", Visibility: VisibilityPrivate}, true},
		{"anonymous private", anonymous, &SavedFilter{OwnerID: "u1", Visibility: VisibilityPrivate}, false},
		{"nil filter", owner, nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanAccess(tc.p, tc.filter))
		})
	}
}

func TestCanMutate(t *testing.T) {
	owner := domain.Principal{UserID: "u1"}
	admin := domain.Principal{UserID: "u4", IsAdmin: true}

	f := &SavedFilter{OwnerID: "u1", Visibility: VisibilityPublic}

	assert.True(t, CanMutate(owner, f))
	assert.False(t, CanMutate(domain.Principal{UserID: "u2"}, f))
	assert.False(t, CanMutate(admin, f), "admins read everything but mutate nothing they don't own")
	assert.False(t, CanMutate(domain.Principal{}, f))
	assert.False(t, CanMutate(owner, nil))
}

func TestSnapshotCopiesRules(t *testing.T) {
	f := &SavedFilter{
		Name:       "cheap models",
		Visibility: VisibilityPrivate,
		Version:    3,
	}
	f.Rules = append(f.Rules, clause("inputCost", "lte", 10.0, "hard", 0))

	snap := f.Snapshot()
	assert.Equal(t, "cheap models", snap.Name)
	assert.Equal(t, 3, snap.Version)

	// Mutating the parent must not leak into the snapshot.
	f.Rules[0].Value = 99.0
	f.Name = "renamed"
	assert.Equal(t, 10.0, snap.Rules[0].Value)
	assert.Equal(t, "cheap models", snap.Name)
}
