package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/app"
	"github.com/qadash/qa_dashboard_REST_server/internal/config"
	"github.com/qadash/qa_dashboard_REST_server/internal/lib/logger/handlers/logruspretty"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env, cfg.LogsPath)

	log.WithField("env", cfg.Env).Info("Application start!")

	application, err := app.New(cfg, log)
	if err != nil {
		panic(err)
	}

	application.Run()

	<-application.Done
	log.Info("Application stopped")
}

func setupLogger(env string, logFilePath string) *logrus.Logger {
	var log = logrus.New()

	switch env {
	case envLocal:
		log.SetLevel(logrus.DebugLevel)
		return setupPrettyLog(log)
	case envDev:
		log.SetOutput(openLogFile(logFilePath))
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.InfoLevel)
	case envProd:
		log.SetOutput(openLogFile(logFilePath))
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.WarnLevel)
	default:
		log.SetOutput(openLogFile(logFilePath))
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.WarnLevel)
	}

	return log
}

func openLogFile(path string) *os.File {
	logFile, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		panic(err)
	}
	return logFile
}

func setupPrettyLog(log *logrus.Logger) *logrus.Logger {
	log.SetFormatter(logruspretty.New())
	log.SetOutput(os.Stdout)
	return log
}
