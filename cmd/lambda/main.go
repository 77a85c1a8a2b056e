// cmd/lambda/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/unclebandit/customer-publisher/internal/app"
	"github.com/unclebandit/customer-publisher/internal/config"
	"github.com/unclebandit/customer-publisher/internal/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "lambda:", err)
		os.Exit(1)
	}

	log, _, err := logging.New(cfg.Log, "lambda")
	if err != nil {
		fmt.Fprintln(os.Stderr, "lambda:", err)
		os.Exit(1)
	}

	// The pipeline lives as long as the execution environment; Lambda gives no
	// shutdown hook to close it from.
	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	// Make the handler available for Remote Procedure Call by AWS Lambda
	lambda.Start(a.Router.FunctionURLHandler(log))
}
