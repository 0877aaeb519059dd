package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"

	"ratebot/internal/api"
	"ratebot/internal/api/middleware"
	"ratebot/internal/service"
)

const monitoringPath = "/monitoring"

func (app *App) initHTTP(reportService service.ReportServiceInterface) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(app.logger, "/healthz", "/readyz", monitoringPath))
	r.Use(chimiddleware.Recoverer)

	r.Post("/reports/run", api.HandleRequestRun(reportService))
	r.Get("/reports/latest", api.HandleGetLatestReport(reportService))
	r.Get("/reports/preview", api.HandlePreview(reportService))
	r.Get("/reports/{run_id}", api.HandleGetRunByID(reportService))
	r.Get("/healthz", api.HandleHealthz())
	r.Get("/readyz", api.HandleReadyz(app.readiness()))

	if app.cfg.Server.ServeSwagger {
		r.Get("/swagger/*", api.SwaggerUIHandler())
		r.Get("/openapi.json", api.OpenAPISpecHandler())
	}

	if app.cfg.Server.ServeAsynqmon {
		mon := asynqmon.New(asynqmon.Options{
			RootPath:     monitoringPath,
			RedisConnOpt: asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr},
		})
		r.Handle(monitoringPath+"/*", mon)
	}

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(app.cfg.Scraper.TimeoutSec*2+15) * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (app *App) readiness() api.Readiness {
	return api.Readiness{
		Report:         app.cfg.Report.Name,
		Sources:        len(app.cfg.Sources),
		MailTransport:  app.cfg.Mail.Transport,
		RecipientStore: app.cfg.Recipients.Store,
		RunHistory:     app.db.PingContext,
		Cache:          func(ctx context.Context) error { return app.rdbCache.Ping(ctx).Err() },
		Queue:          func(ctx context.Context) error { return app.rdbAsynq.Ping(ctx).Err() },
	}
}
