package service

import (
	"errors"

	"gamebot/internal/core/domain"

	"github.com/spf13/viper"
)

// Roles resolves which configured role sets a participant belongs to.
type Roles struct {
	members map[domain.Role]map[int64]struct{}
}

func NewRoles() (*Roles, error) {
	var admins, moderators []int64

	if err := viper.UnmarshalKey("bot.admin_ids", &admins); err != nil {
		return nil, errors.New("failed to load admin IDs")
	}
	if err := viper.UnmarshalKey("bot.moderator_ids", &moderators); err != nil {
		return nil, errors.New("failed to load moderator IDs")
	}

	r := &Roles{members: map[domain.Role]map[int64]struct{}{
		domain.RoleAdmin:     toSet(admins),
		domain.RoleModerator: toSet(moderators),
	}}

	return r, nil
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}

// Has reports whether the participant holds the given role.
func (r *Roles) Has(userID int64, role domain.Role) bool {
	_, ok := r.members[role][userID]
	return ok
}

// HasAny reports whether the participant holds at least one of the roles.
// An empty required set always passes.
func (r *Roles) HasAny(userID int64, required []domain.Role) bool {
	if len(required) == 0 {
		return true
	}

	for _, role := range required {
		if r.Has(userID, role) {
			return true
		}
	}

	return false
}
