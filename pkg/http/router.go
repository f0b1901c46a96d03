package http

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/bnookala/paymentbot/pkg/connector"
	"github.com/bnookala/paymentbot/pkg/correlate"
	"github.com/bnookala/paymentbot/pkg/dialog"
	"github.com/bnookala/paymentbot/pkg/handler"
	"github.com/bnookala/paymentbot/pkg/paypal"
	"github.com/bnookala/paymentbot/pkg/stats"
)

type Router struct {
	App      *fiber.App
	Handler  *handler.PaymentHandler
	Flow     *dialog.Flow
	Recorder *stats.Recorder
}

func NewRouter(paymentHandler *handler.PaymentHandler, flow *dialog.Flow, recorder *stats.Recorder) *Router {
	app := fiber.New(fiber.Config{
		DisableHeaderNormalizing: true,
		JSONEncoder:              json.Marshal,
		JSONDecoder:              json.Unmarshal,
		ReadTimeout:              5 * time.Second,
		WriteTimeout:             10 * time.Second,
		IdleTimeout:              30 * time.Second,
		DisableStartupMessage:    true,
	})

	return &Router{
		App:      app,
		Handler:  paymentHandler,
		Flow:     flow,
		Recorder: recorder,
	}
}

func (r *Router) RegisterRoutes() {
	// Health check route
	r.App.Get("/health", r.HealthCheck)

	// Inbound channel messages
	r.App.Post("/api/messages", r.Messages)

	// Provider redirect targets
	r.App.Get("/approvalComplete", r.ApprovalComplete)
	r.App.Get("/cancel", r.Cancel)

	// Executed payments summary route
	r.App.Get("/payments-summary", r.PaymentsSummary)
}

func (r *Router) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Service is running",
	})
}

func (r *Router) Messages(c *fiber.Ctx) error {
	var activity connector.Activity
	if err := c.BodyParser(&activity); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid activity body",
		})
	}

	if err := r.Flow.HandleActivity(c.Context(), activity); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to handle activity",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// ApprovalComplete is the provider-invoked callback after the user approves
// the payment. The response follows the execute outcome rather than
// acknowledging unconditionally, so the provider and the user's browser see
// failures.
func (r *Router) ApprovalComplete(c *fiber.Ctx) error {
	if _, err := r.Handler.CompletePayment(c.Context(), c.Queries()); err != nil {
		var decodeErr *correlate.DecodeError
		if errors.As(err, &decodeErr) || errors.Is(err, handler.ErrEmptyPayerID) {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid approval callback.")
		}
		var apiErr *paypal.APIError
		if errors.As(err, &apiErr) {
			return c.Status(fiber.StatusBadGateway).SendString("Your payment could not be completed.")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Your payment could not be completed.")
	}

	return c.SendString("Payment complete. You can head back to the conversation.")
}

func (r *Router) Cancel(c *fiber.Ctx) error {
	return c.SendString("Payment cancelled. Nothing was charged.")
}

func (r *Router) PaymentsSummary(c *fiber.Ctx) error {
	return c.JSON(r.Recorder.Summary())
}
