package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/eventsync-services/common/bootstrap"
	"github.com/eventsync-services/common/router"
	"github.com/eventsync-services/services/auth-lambda/handler"
	"github.com/eventsync-services/services/auth-lambda/usecase"
)

func main() {
	app, err := bootstrap.Init(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	authUseCase := usecase.NewAuthUseCase(app.DB, app.Tokens, usecase.Config{
		AdminPasskey:   app.Config.AdminPasskey,
		MaxKeyAttempts: app.Config.AdminMaxKeyAttempts,
	})

	r := router.New(authUseCase.ResolveIdentity, router.Recover(), router.Logging())
	r.Add(handler.NewAuthHandler(authUseCase).Routes()...)

	lambda.Start(r.Handler())
}
