// Package monitoring wires Sentry error reporting and tracing.
// When no DSN is configured every function here is a no-op.
package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"estate_portal_backend/platform/config"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Init configures the global Sentry client. The returned flush func must be
// deferred by the caller so buffered events are sent before exit.
func Init(cfg config.MonitoringConfig) (flush func(), enabled bool, err error) {
	dsn := strings.TrimSpace(cfg.GetSentryDSN())
	if dsn == "" {
		return func() {}, false, nil
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      cfg.GetEnv(),
		Release:          "estate-portal@" + cfg.GetRelease(),
		TracesSampleRate: 0.2,
	})
	if err != nil {
		return func() {}, false, fmt.Errorf("sentry init: %w", err)
	}

	return func() { sentry.Flush(2 * time.Second) }, true, nil
}

// Middleware starts a Sentry transaction per request and reports errors
// attached to the gin context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()

		name := fmt.Sprintf("%s %s", c.Request.Method, c.FullPath())
		transaction := sentry.StartTransaction(
			sentry.SetHubOnContext(c.Request.Context(), hub),
			name,
			sentry.ContinueFromRequest(c.Request),
		)
		defer func() {
			transaction.Status = sentry.HTTPtoSpanStatus(c.Writer.Status())
			transaction.Finish()
		}()

		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetContext("request", map[string]any{
				"method":  c.Request.Method,
				"url":     c.Request.URL.String(),
				"headers": safeHeaders(c.Request.Header),
			})
			scope.SetTag("http.route", c.FullPath())
		})

		c.Request = c.Request.WithContext(transaction.Context())
		c.Next()

		for _, ginErr := range c.Errors {
			hub.CaptureException(ginErr.Err)
		}
	}
}

// CaptureError reports err with extra context to the hub bound to ctx, or
// the current hub.
func CaptureError(ctx context.Context, err error, extras map[string]any) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		hub.CaptureException(err)
	})
}

func safeHeaders(h http.Header) map[string]any {
	safe := make(map[string]any, len(h))
	for k, v := range h {
		if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
			safe[k] = "[FILTERED]"
			continue
		}
		safe[k] = v
	}
	return safe
}
