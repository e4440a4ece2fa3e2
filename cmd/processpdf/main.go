// Lambda entrypoint for the PDF text-extraction stage. Triggered by S3
// upload events; configuration comes from the function's environment.
package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kelseyhightower/envconfig"

	analysisdynamodb "github.com/hupe1980/groupmesh/analysis/dynamodb"
	"github.com/hupe1980/groupmesh/processpdf"
)

type appConfig struct {
	AnalysesTableName string        `envconfig:"ANALYSES_TABLE_NAME" required:"true"`
	NotifyEndpoint    string        `envconfig:"NOTIFY_ENDPOINT" required:"true"`
	NotifyTimeout     time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"30s"`
}

func main() {
	var cfg appConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("load aws configuration: %v", err)
	}

	records := analysisdynamodb.NewStore(awsdynamodb.NewFromConfig(awsCfg), cfg.AnalysesTableName)
	notifier := processpdf.NewHTTPNotifier(cfg.NotifyEndpoint, func(o *processpdf.HTTPNotifierOptions) {
		o.HTTPClient.Timeout = cfg.NotifyTimeout
	})

	handler := processpdf.NewHandler(s3.NewFromConfig(awsCfg), records, notifier)

	lambda.Start(handler.Handle)
}
