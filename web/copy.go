package web

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Copy holds the user-facing strings of the shell.
type Copy struct {
	Loading       string
	SignInTitle   string
	SignInBody    string
	UpgradeTitle  string
	UpgradeBody   string
	UpgradeAction string
	AppTitle      string
	SignedInAs    string
}

const (
	keyLoading       = "page.loading"
	keySignInTitle   = "page.signin.title"
	keySignInBody    = "page.signin.body"
	keyUpgradeTitle  = "page.upgrade.title"
	keyUpgradeBody   = "page.upgrade.body"
	keyUpgradeAction = "page.upgrade.action"
	keyAppTitle      = "page.app.title"
	keySignedInAs    = "page.user.signed_in_as"
)

var catalog = map[string]map[string]string{
	"en": {
		keyLoading:       "Loading...",
		keySignInTitle:   "Sign in to access the app",
		keySignInBody:    "You need to be logged in to use this feature.",
		keyUpgradeTitle:  "Upgrade to premium",
		keyUpgradeBody:   "Your account does not have an active premium subscription yet.",
		keyUpgradeAction: "See plans",
		keyAppTitle:      "Business idea generator",
		keySignedInAs:    "Signed in as",
	},
	"es": {
		keyLoading:       "Cargando...",
		keySignInTitle:   "Inicia sesión para acceder a la aplicación",
		keySignInBody:    "Necesitas iniciar sesión para usar esta función.",
		keyUpgradeTitle:  "Actualiza a premium",
		keyUpgradeBody:   "Tu cuenta todavía no tiene una suscripción premium activa.",
		keyUpgradeAction: "Ver planes",
		keyAppTitle:      "Generador de ideas de negocio",
		keySignedInAs:    "Sesión iniciada como",
	},
}

// copyTags lists the catalog languages; English leads as the fallback.
var copyTags = []language.Tag{language.English, language.Spanish}

var copyMatcher = language.NewMatcher(copyTags)

func init() {
	for _, tag := range copyTags {
		for key, msg := range catalog[tag.String()] {
			if err := message.SetString(tag, key, msg); err != nil {
				panic("web: register copy " + key + ": " + err.Error())
			}
		}
	}
}

// CopyFor returns the strings for language l and the language actually used.
// Unknown languages fall back to English.
func CopyFor(l string) (Copy, string) {
	tag := language.English
	if parsed, err := language.Parse(l); err == nil {
		if _, idx, conf := copyMatcher.Match(parsed); conf >= language.High {
			tag = copyTags[idx]
		}
	}
	p := message.NewPrinter(tag)
	return Copy{
		Loading:       p.Sprintf(keyLoading),
		SignInTitle:   p.Sprintf(keySignInTitle),
		SignInBody:    p.Sprintf(keySignInBody),
		UpgradeTitle:  p.Sprintf(keyUpgradeTitle),
		UpgradeBody:   p.Sprintf(keyUpgradeBody),
		UpgradeAction: p.Sprintf(keyUpgradeAction),
		AppTitle:      p.Sprintf(keyAppTitle),
		SignedInAs:    p.Sprintf(keySignedInAs),
	}, tag.String()
}
