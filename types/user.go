package types

import "time"

const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

// BotUserId is the reserved identity under which automated responses are
// persisted and broadcast.
const BotUserId = "bot"

type User struct {
	Id               string    `json:"id" gorm:"primaryKey"`
	Email            string    `json:"email" gorm:"uniqueIndex"`
	Password         *string   `json:"-"`
	Name             *string   `json:"name"`
	Role             string    `json:"role"`
	GoogleId         *string   `json:"-" gorm:"uniqueIndex"`
	TwoFactorSecret  *string   `json:"-"`
	TwoFactorEnabled bool      `json:"-"`
	AvatarUrl        *string   `json:"avatarUrl"`
	LastOnline       time.Time `json:"-"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}

// PublicUser is the sanitized projection sent over the wire, never the full
// row (which carries credential columns).
type PublicUser struct {
	Id        string  `json:"id"`
	Name      *string `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	AvatarUrl *string `json:"avatarUrl,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		Id:        u.Id,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		AvatarUrl: u.AvatarUrl,
	}
}

// DisplayName prefers the optional name and falls back to the e-mail address.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}

// BotUser is the sentinel author of automated responses. It is upserted into
// the user table at startup so broadcast messages always resolve an author.
func BotUser() *User {
	name := "AI Assistant"
	return &User{
		Id:    BotUserId,
		Email: "bot@classchat.invalid",
		Name:  &name,
		Role:  RoleAdmin,
	}
}
