package auth

import "github.com/ivevents/ivevents/internal/models"

// Identity is the result of resolving a request credential: either a
// concrete user or Anonymous. Handlers treat Anonymous as "no valid
// credential" without learning why the credential failed.
type Identity struct {
	User *models.User
}

// Anonymous is the identity of requests without a valid credential.
var Anonymous = Identity{}

// IsAnonymous reports whether no user was resolved.
func (i Identity) IsAnonymous() bool {
	return i.User == nil
}

// UserID returns the resolved user id, or "" for Anonymous.
func (i Identity) UserID() string {
	if i.User == nil {
		return ""
	}
	return i.User.ID
}
