package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/rentora/property-portal/internal/auth"
	"github.com/rentora/property-portal/internal/config"
	"github.com/rentora/property-portal/internal/handler"
	"github.com/rentora/property-portal/internal/middleware"
	"github.com/rentora/property-portal/internal/platform"
	"github.com/rentora/property-portal/internal/queue"
	"github.com/rentora/property-portal/internal/repository"
	"github.com/rentora/property-portal/internal/router"
	"github.com/rentora/property-portal/internal/session"
	"github.com/rentora/property-portal/internal/storage"
)

func main() {
	cfg := config.Load()
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rdb := config.NewRedisClient()
	client := platform.NewClient(cfg.PlatformURL, cfg.PlatformAnonKey, cfg.PlatformSvcKey)

	users := repository.NewUserRepo(client)
	grants := repository.NewRoleGrantRepo(client)
	properties := repository.NewPropertyRepo(client)
	units := repository.NewUnitRepo(client)
	maintenance := repository.NewMaintenanceRepo(client)
	notifications := repository.NewNotificationRepo(client)

	uploader, err := storage.NewUploader(context.Background(), storage.Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		AccessID:  cfg.S3AccessID,
		SecretKey: cfg.S3Secret,
	})
	if err != nil {
		logrus.WithError(err).Fatal("object storage setup failed")
	}

	events := queue.NewPublisher(cfg.RabbitURL)
	sessions := session.NewStore(rdb, time.Duration(cfg.RefreshTTLDays)*24*time.Hour)
	svc := auth.NewService(cfg.JWTSecret, users, grants, sessions, events)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	var limiter echo.MiddlewareFunc
	if rlCfg := config.LoadRateLimitConfig(); rlCfg.Enabled && rdb != nil {
		limiter = middleware.NewTokenBucket(rlCfg, rdb)
	}

	router.Register(e, svc, router.Handlers{
		Auth:        handler.NewAuthHandler(client, users, svc),
		Users:       handler.NewUserHandler(client, users, grants, svc, uploader),
		Properties:  handler.NewPropertyHandler(properties, uploader),
		Units:       handler.NewUnitHandler(units, properties, uploader),
		Maintenance: handler.NewMaintenanceHandler(maintenance, units, properties, users, notifications, uploader, events),
		Dashboard:   handler.NewDashboardHandler(properties, units, maintenance, notifications),
	}, limiter)

	go queue.StartAuditConsumer(cfg.RabbitURL)

	addr := ":" + cfg.Port
	logrus.Infof("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		logrus.Fatal(err)
	}
}
