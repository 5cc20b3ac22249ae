package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/eventsync-services/common/bootstrap"
	"github.com/eventsync-services/common/router"
	"github.com/eventsync-services/services/admin-lambda/handler"
	"github.com/eventsync-services/services/admin-lambda/usecase"
	authusecase "github.com/eventsync-services/services/auth-lambda/usecase"
)

// For AWS Lambda deployment
func main() {
	app, err := bootstrap.Init(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	auth := authusecase.NewAuthUseCase(app.DB, app.Tokens, authusecase.Config{
		AdminPasskey:   app.Config.AdminPasskey,
		MaxKeyAttempts: app.Config.AdminMaxKeyAttempts,
	})

	admin := usecase.NewAdminUseCase(app.DB, app.Mailer, usecase.Config{
		NotifyConcurrency: app.Config.NotifyConcurrency,
		SendTimeout:       app.Config.SMTPTimeout,
	})

	r := router.New(auth.ResolveIdentity, router.Recover(), router.Logging())
	r.Add(handler.NewAdminHandler(admin).Routes()...)

	lambda.Start(r.Handler())
}
