package authgin

import (
	"github.com/PaulFidika/subgate/adapters/ginutil"
	authlang "github.com/PaulFidika/subgate/lang"
	"github.com/gin-gonic/gin"
)

// UserView is a unified view of the caller for handlers and templates.
type UserView struct {
	UserID          string `json:"user_id,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
	AuthorizedParty string `json:"authorized_party,omitempty"`
	Language        string `json:"language"`

	// Meta
	Source string `json:"source"` // "session" | "none"
}

// CurrentUser returns the caller's snapshot and whether they are signed in.
func CurrentUser(c *gin.Context) (UserView, bool) {
	reqLang := "en"
	if v, ok := authlang.LanguageFromContext(c.Request.Context()); ok {
		reqLang = v
	}

	if s, err := ginutil.SessionFromGin(c); err == nil {
		return UserView{
			UserID:          s.UserID,
			SessionID:       s.SessionID,
			AuthorizedParty: s.AuthorizedParty,
			Language:        reqLang,
			Source:          "session",
		}, true
	}

	return UserView{
		Language: reqLang,
		Source:   "none",
	}, false
}
