package services

import "errors"

// NotMutualFollowersReason is shown when messaging is refused.
const NotMutualFollowersReason = "You can only message users who are mutual followers."

// DeniedError is returned when an operation is refused for an
// authorization reason the caller should display verbatim.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return e.Reason
}

var (
	ErrNotMutualFollowers = &DeniedError{Reason: NotMutualFollowersReason}
	ErrNotPostAuthor      = &DeniedError{Reason: "You can only modify your own posts."}

	ErrUserNotFound       = errors.New("user not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrEmptyPost          = errors.New("post content is empty")
	ErrPostTooLong        = errors.New("post content exceeds 280 characters")
	ErrEmptyMessage       = errors.New("message content is empty")
	ErrMessageTooLong     = errors.New("message content exceeds 1000 characters")
	ErrMissingFields      = errors.New("username, email and password are required")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSpotifyNotLinked   = errors.New("spotify account not linked")
	ErrSpotifyInUse       = errors.New("spotify account already linked to another user")
)
