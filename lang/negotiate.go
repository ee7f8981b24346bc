package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Normalize reduces a BCP 47 tag like "es-MX", "ES_mx" or "spa" to its
// two-letter base language. Malformed or unknown input yields "".
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	tag, err := language.Parse(s)
	if err != nil || tag == language.Und {
		return ""
	}
	base, _ := tag.Base()
	code := base.String()
	if len(code) != 2 {
		return ""
	}
	return code
}

// Negotiator picks a request language from a fixed supported set.
type Negotiator struct {
	supported map[string]struct{}
	tags      []language.Tag
	matcher   language.Matcher
	def       string
}

// NewNegotiator builds a negotiator over supported. When def is not among
// them the first supported language becomes the default; an empty set
// means English only.
func NewNegotiator(supported []string, def string) Negotiator {
	n := Negotiator{supported: make(map[string]struct{}, len(supported))}
	var codes []string
	for _, s := range supported {
		code := Normalize(s)
		if code == "" {
			continue
		}
		if _, dup := n.supported[code]; dup {
			continue
		}
		n.supported[code] = struct{}{}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		codes = []string{"en"}
		n.supported["en"] = struct{}{}
	}

	n.def = codes[0]
	if d := Normalize(def); n.accepts(d) {
		n.def = d
	}

	// The matcher falls back to its first tag, so the default leads.
	n.tags = append(n.tags, language.Make(n.def))
	for _, code := range codes {
		if code != n.def {
			n.tags = append(n.tags, language.Make(code))
		}
	}
	n.matcher = language.NewMatcher(n.tags)
	return n
}

func (n Negotiator) accepts(code string) bool {
	if code == "" {
		return false
	}
	_, ok := n.supported[code]
	return ok
}

// Candidates are the request signals, in precedence order.
type Candidates struct {
	Query          string
	Path           string
	Cookie         string
	AcceptLanguage string
}

// Pick applies `?lang` > `/:lang/` path prefix > cookie > Accept-Language > default.
func (n Negotiator) Pick(c Candidates) string {
	if code := Normalize(c.Query); n.accepts(code) {
		return code
	}
	if code := pathPrefix(c.Path); n.accepts(code) {
		return code
	}
	if code := Normalize(c.Cookie); n.accepts(code) {
		return code
	}
	if code, ok := n.matchAcceptLanguage(c.AcceptLanguage); ok {
		return code
	}
	return n.def
}

// matchAcceptLanguage honours q-values; languages weighted q=0 are
// unacceptable and never chosen.
func (n Negotiator) matchAcceptLanguage(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	tags, weights, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return "", false
	}
	wanted := make([]language.Tag, 0, len(tags))
	for i, tag := range tags {
		if weights[i] > 0 {
			wanted = append(wanted, tag)
		}
	}
	if len(wanted) == 0 {
		return "", false
	}
	_, idx, conf := n.matcher.Match(wanted...)
	if conf == language.No {
		return "", false
	}
	base, _ := n.tags[idx].Base()
	return base.String(), true
}

// Default returns the fallback language.
func (n Negotiator) Default() string { return n.def }

func pathPrefix(path string) string {
	path = strings.TrimLeft(path, "/")
	if len(path) < 2 {
		return ""
	}
	seg := path
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	if len(seg) != 2 {
		return ""
	}
	return Normalize(seg)
}
