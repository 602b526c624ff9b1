//go:build lambda
// +build lambda

package main

import (
	"context"

	"github.com/cyphera/payment-alerts/internal/logger"
	"github.com/cyphera/payment-alerts/internal/server"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

var ginLambda *ginadapter.GinLambda

func init() {
	ctx := context.Background()
	cfg, logs := bootstrap(ctx)
	ginLambda = ginadapter.New(server.NewRouter(ctx, cfg, logs, server.NewCollaborators(cfg)))
}

func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.Debug("Received Lambda request",
		zap.String("path", req.Path),
		zap.String("request", spew.Sdump(req)),
	)

	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	defer logger.Sync()
	lambda.Start(Handler)
}
