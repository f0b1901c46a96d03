package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnookala/paymentbot/pkg/config"
	"github.com/bnookala/paymentbot/pkg/connector"
	"github.com/bnookala/paymentbot/pkg/dialog"
	"github.com/bnookala/paymentbot/pkg/handler"
	"github.com/bnookala/paymentbot/pkg/http"
	"github.com/bnookala/paymentbot/pkg/models"
	"github.com/bnookala/paymentbot/pkg/paypal"
	"github.com/bnookala/paymentbot/pkg/stats"
)

func main() {
	logger := log.New(os.Stdout, "[BOT] ", log.LstdFlags)
	cfg := config.LoadConfig()

	// Setup graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Println("Shutting down gracefully...")
		os.Exit(0)
	}()

	// The one fine this bot collects
	intent := models.PaymentIntent{
		AmountMinorUnits: cfg.FineAmountCents,
		Currency:         cfg.FineCurrency,
		Description:      cfg.FineDescription,
		Items: []models.LineItem{{
			Name:            cfg.FineItemName,
			SKU:             "fine-001",
			PriceMinorUnits: cfg.FineAmountCents,
			Quantity:        1,
		}},
	}

	provider := paypal.NewClient(cfg.PayPalMode, cfg.PayPalClientID, cfg.PayPalClientSecret, logger)
	sender := connector.NewClient(cfg.BotAppID, cfg.BotAppPassword, logger)
	recorder := stats.NewRecorder()

	paymentHandler := handler.NewPaymentHandler(provider, sender, recorder,
		cfg.CallbackHost, cfg.CallbackPort, intent, logger)
	flow := dialog.NewFlow(paymentHandler, sender, intent, logger)

	// Create and configure router
	router := http.NewRouter(paymentHandler, flow, recorder)
	router.RegisterRoutes()

	// Start HTTP server
	logger.Printf("Starting bot server on port %s", cfg.HTTPPort)
	if err := router.App.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
