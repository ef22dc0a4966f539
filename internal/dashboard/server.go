// Package dashboard serves a local read-only web view of the depot user's
// portal state: unread messages plus schedule and announcement previews,
// fetched live on each request.
package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/depotlink/depotctl/internal/api"
	"github.com/depotlink/depotctl/internal/feed"
	"github.com/gin-gonic/gin"
)

// Portal abstracts the api.Client methods the dashboard reads from.
type Portal interface {
	GetUnreadMessages(ctx context.Context) ([]api.Message, error)
	GetSchedules(ctx context.Context, page int) (api.Page[api.Schedule], error)
	GetAnnouncements(ctx context.Context, page int) (api.Page[api.Announcement], error)
}

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Portal Portal
	Port   int
	Out    io.Writer
}

// Start launches the dashboard HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Portal == nil {
		return fmt.Errorf("dashboard: portal is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	router, err := newRouter(opts.Portal)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Depot dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// newRouter assembles the gin engine with templates and routes.
func newRouter(portal Portal) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	registerRoutes(router, portal)
	return router, nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// previewFeeds builds fresh schedule and announcement feeds for one request.
func previewFeeds(p Portal) (*feed.Feed[api.Schedule], *feed.Feed[api.Announcement]) {
	sched := feed.New(func(ctx context.Context, page int) (api.Page[api.Schedule], error) {
		return p.GetSchedules(ctx, page)
	})
	ann := feed.New(func(ctx context.Context, page int) (api.Page[api.Announcement], error) {
		return p.GetAnnouncements(ctx, page)
	})
	return sched, ann
}
