package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email       string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password    string    `json:"-"`
	FirebaseUID *string   `json:"-" gorm:"uniqueIndex"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`

	// Spotify linkage
	SpotifyUserID       *string    `json:"spotify_user_id,omitempty" gorm:"uniqueIndex"`
	SpotifyDisplayName  string     `json:"spotify_display_name,omitempty"`
	SpotifyAccessToken  string     `json:"-" gorm:"size:1024"`
	SpotifyRefreshToken string     `json:"-" gorm:"size:1024"`
	SpotifyConnectedAt  *time.Time `json:"spotify_connected_at,omitempty"`
	TopArtists          string     `json:"top_artists,omitempty"`

	// Profile customization
	ProfileIcon        string `json:"profile_icon" gorm:"size:16"`
	BannerColor        string `json:"banner_color" gorm:"size:7"`
	Bio                string `json:"bio" gorm:"size:500"`
	FavoriteSongID     string `json:"favorite_song_id,omitempty"`
	FavoriteSongName   string `json:"favorite_song_name,omitempty"`
	FavoriteSongArtist string `json:"favorite_song_artist,omitempty"`
	FavoriteSongImage  string `json:"favorite_song_image,omitempty"`
	FavoriteSongURL    string `json:"favorite_song_url,omitempty"`

	// Follow stats, filled per request and never persisted.
	FollowerCount  int64 `json:"follower_count" gorm:"-"`
	FollowingCount int64 `json:"following_count" gorm:"-"`
	IsFollowing    bool  `json:"is_following" gorm:"-"`
}

// SpotifyLinked reports whether the user has connected a Spotify account.
func (u *User) SpotifyLinked() bool {
	return u.SpotifyUserID != nil && *u.SpotifyUserID != "" && u.SpotifyAccessToken != ""
}

// UserCompact is the author/actor shape embedded in other payloads.
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	ProfileIcon string `json:"profile_icon"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username, ProfileIcon: u.ProfileIcon}
}

type CreateLocalUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries a profile edit. Icon and color values outside
// the allowed sets are ignored rather than rejected.
type UpdateProfileRequest struct {
	ProfileIcon        string `json:"profile_icon"`
	BannerColor        string `json:"banner_color"`
	Bio                string `json:"bio"`
	FavoriteSongID     string `json:"favorite_song_id"`
	FavoriteSongName   string `json:"favorite_song_name"`
	FavoriteSongArtist string `json:"favorite_song_artist"`
	FavoriteSongImage  string `json:"favorite_song_image" validate:"omitempty,url"`
	FavoriteSongURL    string `json:"favorite_song_url" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
