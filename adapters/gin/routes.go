package authgin

import (
	"errors"

	"github.com/PaulFidika/subgate/adapters/gin/handlers"
	"github.com/PaulFidika/subgate/core"
	"github.com/PaulFidika/subgate/ratelimit"
	"github.com/PaulFidika/subgate/web"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Options wires the HTTP surface.
type Options struct {
	Service  *core.Service
	Sessions core.SessionVerifier
	Limiter  ratelimit.Limiter
	Logger   logrus.FieldLogger
	Language *LanguageConfig
	Page     web.Meta
	// ShowDetails exposes failure causes in 500 bodies.
	ShowDetails bool
}

// NewEngine returns a gin engine with the middleware chain, templates and
// routes installed.
func NewEngine(opts Options) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)
	if err := Register(r, opts); err != nil {
		return nil, err
	}
	return r, nil
}

// Register installs middleware and routes on r.
func Register(r *gin.Engine, opts Options) error {
	if opts.Service == nil {
		return errors.New("authgin: service is required")
	}
	if opts.Sessions == nil {
		return errors.New("authgin: session verifier is required")
	}

	r.GET("/healthz", handlers.HandleHealthGET())

	app := r.Group("/")
	app.Use(
		RequestID(opts.Logger),
		RequestLogger(),
		SecurityHeaders(),
		LanguageMiddleware(opts.Language),
		SessionMiddleware(opts.Sessions),
	)

	check := handlers.HandleSubscriptionCheckGET(opts.Service, opts.Limiter, handlers.SubscriptionCheckOptions{ShowDetails: opts.ShowDetails})
	app.Any("/api/check-subscription", NoStore(), check)

	app.GET("/api/me", NoStore(), SessionRequired(), HandleMeGET(opts.Service, opts.Limiter, opts.ShowDetails))

	page := handlers.HandleAppPageGET(opts.Service, opts.Limiter, opts.Page)
	app.GET("/app", NoStore(), page)
	app.GET("/", NoStore(), page)
	return nil
}
