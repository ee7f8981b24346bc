// Package lang negotiates the language a page is rendered in and carries it
// on the request context.
package lang

import "context"

type languageKey struct{}

// WithLanguage attaches a negotiated language to ctx. Codes that do not
// normalize to a two-letter language leave ctx unchanged.
func WithLanguage(ctx context.Context, language string) context.Context {
	code := Normalize(language)
	if code == "" {
		return ctx
	}
	return context.WithValue(ctx, languageKey{}, code)
}

// LanguageFromContext returns the language attached by WithLanguage.
func LanguageFromContext(ctx context.Context) (string, bool) {
	code, ok := ctx.Value(languageKey{}).(string)
	return code, ok
}
