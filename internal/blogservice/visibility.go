package blogservice

import (
	"github.com/sushihentaime/blogmate/internal/userservice"
)

// canSeeDeleted is the single soft-delete visibility rule: admins see
// soft-deleted rows, everyone else (anonymous included) does not. Every
// single-item, list, and bulk query derives its deleted predicate from
// this function rather than re-deciding per query.
func canSeeDeleted(actor *userservice.User) bool {
	return actor != nil && actor.Role.IsAdmin()
}

func isOwnerOrAdmin(actor *userservice.User, ownerID int) bool {
	if actor == nil {
		return false
	}
	return actor.ID == ownerID || actor.Role.IsAdmin()
}
