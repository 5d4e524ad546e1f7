package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/user/papertrade/internal/auth"
	"github.com/user/papertrade/internal/config"
	"github.com/user/papertrade/internal/database"
	"github.com/user/papertrade/internal/execution"
	"github.com/user/papertrade/internal/handlers"
	"github.com/user/papertrade/internal/middleware"
	"github.com/user/papertrade/internal/prices"
	internalws "github.com/user/papertrade/internal/websocket"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.InitSchema(ctx, pool); err != nil {
		log.Fatal("init schema", zap.Error(err))
	}

	users := database.NewUserStore(pool)
	accounts := database.NewAccountStore(pool)
	orders := database.NewOrderStore(pool)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	priceSource := prices.NewSource(log)
	hub := internalws.NewHub(log)
	exec := execution.New(pool, accounts, orders, hub, log)

	go priceSource.Run(ctx, cfg.PriceTickInterval)
	go hub.Run(ctx, priceSource.Updates())
	go exec.Run(ctx)

	h := handlers.New(pool, users, accounts, orders, issuer, exec, priceSource, hub, cfg.StartingBalance, log)

	app := fiber.New()

	// WebSocket routes live outside the /api group so they skip auth.
	wsGroup := app.Group("/ws")
	wsGroup.Use("/", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	wsGroup.Get("/stream", websocket.New(h.Stream))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", h.Signup)
	authGroup.Post("/login", h.Login)

	// Prices are public.
	api.Get("/prices", h.Prices)
	api.Get("/prices/:ticker", h.Price)

	api.Use(middleware.Protected(issuer))

	api.Post("/orders", h.CreateOrder)
	api.Get("/orders", h.ListOrders)
	api.Get("/portfolio", h.Portfolio)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		cancel()
		_ = app.Shutdown()
	}()

	log.Info("starting server", zap.String("addr", cfg.ListenAddr))
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
