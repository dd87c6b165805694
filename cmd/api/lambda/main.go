//go:build lambda
// +build lambda

package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/cyphera/authority-proxy/internal/client/chain"
	"github.com/cyphera/authority-proxy/internal/config"
	"github.com/cyphera/authority-proxy/internal/logger"
	"github.com/cyphera/authority-proxy/internal/server"
	"github.com/cyphera/authority-proxy/internal/services"
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

var ginLambda *ginadapter.GinLambda

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v\n", err)
	}

	// Initialize logger
	logger.InitLogger(cfg.Stage)

	rpcClient := chain.NewClient(cfg.RPCURL)
	delegationService := services.NewDelegationService(cfg.MintWrapperProgramID, rpcClient)

	ginLambda = ginadapter.New(server.New(cfg, delegationService).Router)
}

func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.Debug("Received Lambda request",
		zap.String("path", req.Path),
		zap.String("request", spew.Sdump(req)),
	)

	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	defer func() { _ = logger.Sync() }()
	lambda.Start(Handler)
}
