package http

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"payrelay/pkg/services/handler"
)

// Bodies above this are rejected with 413 before the handler runs.
const maxBodyBytes = 64 * 1024

type Router struct {
	App     *fiber.App
	Handler *handler.PaymentHandler
}

func NewRouter(paymentHandler *handler.PaymentHandler) *Router {
	app := fiber.New(fiber.Config{
		BodyLimit:                maxBodyBytes,
		DisableHeaderNormalizing: true,
		JSONEncoder:              json.Marshal,
		JSONDecoder:              json.Unmarshal,
	})

	return &Router{
		App:     app,
		Handler: paymentHandler,
	}
}

// RegisterRoutes registers the HTTP routes for the application
func (r *Router) RegisterRoutes() {
	r.App.Post("/payments", r.PaymentIntake)
	r.App.Get("/payments-summary", r.PaymentsSummary)
	r.App.Post("/purge-payments", r.PurgePayments)

	// Everything else: unknown GETs are 404, other methods 405.
	r.App.Use(func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet {
			return c.Status(http.StatusNotFound).SendString("Not found")
		}
		return c.Status(http.StatusMethodNotAllowed).SendString("Method not allowed")
	})
}

// PaymentIntake accepts a payment submission and queues the raw body. The
// caller gets 202 as soon as the bytes are durably queued; everything after
// that is asynchronous.
func (r *Router) PaymentIntake(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return c.Status(http.StatusBadRequest).SendString("empty request body")
	}

	// The body is enqueued as received: fiber reuses its buffers across
	// requests, so the bytes are copied before they leave the handler.
	raw := make([]byte, len(body))
	copy(raw, body)

	if err := r.Handler.HandlePaymentIntake(c.Context(), raw); err != nil {
		return c.Status(http.StatusInternalServerError).SendString("failed to queue payment: " + err.Error())
	}

	return c.Status(http.StatusAccepted).Send(nil)
}

// PaymentsSummary handles the payments summary endpoint
func (r *Router) PaymentsSummary(c *fiber.Ctx) error {
	// GET /payments-summary?from=2020-07-10T12:34:56.000Z&to=2020-07-10T12:35:56.000Z
	summary, err := r.Handler.HandleSummary(c.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		return c.Status(http.StatusInternalServerError).SendString("failed to fetch payments summary: " + err.Error())
	}

	return c.JSON(summary)
}

// PurgePayments wipes all stored state. Reset/test utility.
func (r *Router) PurgePayments(c *fiber.Ctx) error {
	if err := r.Handler.HandlePurge(c.Context()); err != nil {
		return c.Status(http.StatusInternalServerError).Send(nil)
	}
	return c.Status(http.StatusOK).Send(nil)
}

// Start starts the HTTP server
func (r *Router) Start(addr string) error {
	return r.App.Listen(addr)
}
