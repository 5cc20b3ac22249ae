package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/eventsync-services/common/bootstrap"
	"github.com/eventsync-services/common/router"
	authusecase "github.com/eventsync-services/services/auth-lambda/usecase"
	"github.com/eventsync-services/services/event-lambda/handler"
	"github.com/eventsync-services/services/event-lambda/usecase"
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

	r := router.New(auth.ResolveIdentity, router.Recover(), router.Logging())
	r.Add(handler.NewEventHandler(usecase.NewEventUseCase(app.DB, app.Images)).Routes()...)

	lambda.Start(r.Handler())
}
