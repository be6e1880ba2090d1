package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims access token payload.
// Two claim layouts are accepted:
// - community 형식: mb_id, mb_name, mb_level
// - service 형식: user_id, nickname, level
type Claims struct {
	jwt.RegisteredClaims
	MbID     string `json:"mb_id,omitempty"`
	MbName   string `json:"mb_name,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	MbLevel  int    `json:"mb_level,omitempty"`
	Level    int    `json:"level,omitempty"`
}

// GetUserID returns the user ID, checking both formats
func (c *Claims) GetUserID() string {
	if c.MbID != "" {
		return c.MbID
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// GetUserLevel returns the user level, checking both formats
func (c *Claims) GetUserLevel() int {
	if c.MbLevel != 0 {
		return c.MbLevel
	}
	return c.Level
}

// GetUserName returns the user name, checking both formats
func (c *Claims) GetUserName() string {
	if c.MbName != "" {
		return c.MbName
	}
	return c.Nickname
}
