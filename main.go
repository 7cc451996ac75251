package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/reaandrew/fxcopbridge/config"
	log "github.com/sirupsen/logrus"
)

var Version string

func setupLogging(cfg *config.Config) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(cfg.LogLevel())

	if cfg.Log.File == "" {
		return
	}
	// Create or open the log file
	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Println("Failed to open log file:", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
}

func main() {
	if _, exists := os.LookupEnv("AWS_LAMBDA_FUNCTION_NAME"); exists {
		// Lambda has no writable working directory
		cfg := config.DefaultConfig()
		cfg.Log.File = ""
		setupLogging(cfg)
		log.Println("Starting in Lambda mode")
		lambda.Start(Handler)
	} else {
		setupLogging(config.LoadOrDefault())
		log.Debug("Starting in CLI mode")
		cli := &Cli{}
		if err := cli.Execute(); err != nil {
			log.Fatalf("Error executing command: %v", err)
		}
	}
}
