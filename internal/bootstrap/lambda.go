package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/alfredjeanlab/tablefn/internal/config"
)

// RunLambda builds the App once for the cold start and hands the domain
// handler to the Lambda runtime. It does not return on success.
func RunLambda(domain string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat, "json")

	app, err := New(context.Background(), cfg, logger, "tablefn-"+domain)
	if err != nil {
		logger.Error("startup failed", "domain", domain, "err", err)
		os.Exit(1)
	}
	h := app.Handler(domain)
	if h == nil {
		logger.Error("unknown domain", "domain", domain)
		os.Exit(1)
	}

	logger.Info("handler ready", "domain", domain, "backend", cfg.Backend)
	lambda.StartWithOptions(h.Handle, lambda.WithEnableSIGTERM(func() {
		if err := app.Close(); err != nil {
			logger.Error("error closing app", "err", err)
		}
	}))
}
