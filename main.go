package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/eventsync-services/common/bootstrap"
	"github.com/eventsync-services/common/logger"
	"github.com/eventsync-services/common/router"
	adminHandler "github.com/eventsync-services/services/admin-lambda/handler"
	adminUseCase "github.com/eventsync-services/services/admin-lambda/usecase"
	authHandler "github.com/eventsync-services/services/auth-lambda/handler"
	authUseCase "github.com/eventsync-services/services/auth-lambda/usecase"
	eventHandler "github.com/eventsync-services/services/event-lambda/handler"
	eventUseCase "github.com/eventsync-services/services/event-lambda/usecase"
	registrationHandler "github.com/eventsync-services/services/registration-lambda/handler"
	registrationUseCase "github.com/eventsync-services/services/registration-lambda/usecase"
)

// Local server: every service's routes behind one gorilla/mux router
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Init(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.Config.Port),
		Handler:           newHTTPHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[SERVER] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.WithError(err).Error("[SERVER] stopped")
	case <-ctx.Done():
		logger.Info("[SERVER] shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("[SERVER] shutdown failed")
	}
}

func newHTTPHandler(app *bootstrap.App) http.Handler {
	auth := authUseCase.NewAuthUseCase(app.DB, app.Tokens, authUseCase.Config{
		AdminPasskey:   app.Config.AdminPasskey,
		MaxKeyAttempts: app.Config.AdminMaxKeyAttempts,
	})

	r := router.New(auth.ResolveIdentity, router.Recover(), router.Logging())
	r.Add(authHandler.NewAuthHandler(auth).Routes()...)
	r.Add(eventHandler.NewEventHandler(eventUseCase.NewEventUseCase(app.DB, app.Images)).Routes()...)
	r.Add(registrationHandler.NewRegistrationHandler(
		registrationUseCase.NewRegistrationUseCase(app.DB, app.Signer, app.Mailer),
	).Routes()...)
	r.Add(adminHandler.NewAdminHandler(adminUseCase.NewAdminUseCase(app.DB, app.Mailer, adminUseCase.Config{
		NotifyConcurrency: app.Config.NotifyConcurrency,
		SendTimeout:       app.Config.SMTPTimeout,
	})).Routes()...)

	m := mux.NewRouter()
	m.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		status, body := http.StatusOK, `{"status":"ok"}`
		if err := app.DB.PingContext(req.Context()); err != nil {
			status, body = http.StatusServiceUnavailable, `{"status":"unavailable"}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}).Methods(http.MethodGet)
	m.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.Mount(m, app.Config.MaxBodyBytes)

	return cors.New(cors.Options{
		AllowedOrigins: app.Config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", router.HeaderRequestID},
		ExposedHeaders: []string{router.HeaderRequestID, "Content-Disposition"},
	}).Handler(m)
}
