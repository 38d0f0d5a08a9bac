package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const mockToken = "mock-orange-token"

type textMessage struct {
	Message string `json:"message"`
}

type outboundRequest struct {
	Address                string      `json:"address"`
	SenderAddress          string      `json:"senderAddress"`
	OutboundSMSTextMessage textMessage `json:"outboundSMSTextMessage"`
	ResourceURL            string      `json:"resourceURL,omitempty"`
}

type submitEnvelope struct {
	OutboundSMSMessageRequest *outboundRequest `json:"outboundSMSMessageRequest"`
}

type submission struct {
	address     string
	submittedAt time.Time
}

// gateway simulates delivery: messages wait for deliveryDelay, then are delivered,
// except recipients ending in "00" which are impossible to deliver.
type gateway struct {
	mu            sync.Mutex
	sent          map[string]submission
	deliveryDelay time.Duration
	now           func() time.Time
	log           *slog.Logger
}

func newGateway(delay time.Duration, log *slog.Logger) *gateway {
	return &gateway{
		sent:          make(map[string]submission),
		deliveryDelay: delay,
		now:           time.Now,
		log:           log,
	}
}

func (g *gateway) routes(app *fiber.App) {
	app.Post("/oauth/v3/token", g.token)

	outbound := app.Group("/smsmessaging/v1/outbound", g.requireBearer)
	outbound.Post("/requests", g.submit)
	outbound.Get("/requests/:id/deliveryInfos", g.deliveryInfos)
}

// POST /oauth/v3/token accepts any Basic credentials with grant_type=client_credentials.
func (g *gateway) token(c *fiber.Ctx) error {
	if !strings.HasPrefix(c.Get(fiber.HeaderAuthorization), "Basic ") || c.FormValue("grant_type") != "client_credentials" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_client"})
	}
	return c.JSON(fiber.Map{"token_type": "Bearer", "access_token": mockToken, "expires_in": 3600})
}

func (g *gateway) requireBearer(c *fiber.Ctx) error {
	if c.Get(fiber.HeaderAuthorization) != "Bearer "+mockToken {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"code": 42, "message": "Expired credentials"})
	}
	return c.Next()
}

// POST /smsmessaging/v1/outbound/requests
func (g *gateway) submit(c *fiber.Ctx) error {
	var env submitEnvelope
	if err := c.BodyParser(&env); err != nil || env.OutboundSMSMessageRequest == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"requestError": "invalid body"})
	}
	req := env.OutboundSMSMessageRequest
	if !strings.HasPrefix(req.Address, "tel:+") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"requestError": "invalid address"})
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	g.mu.Lock()
	g.sent[id] = submission{address: req.Address, submittedAt: g.now()}
	g.mu.Unlock()

	g.log.Info("mock gateway received message", "to", req.Address, "gateway_message_id", id)

	req.ResourceURL = c.BaseURL() + "/smsmessaging/v1/outbound/" + req.SenderAddress + "/requests/" + id
	return c.Status(fiber.StatusCreated).JSON(env)
}

// GET /smsmessaging/v1/outbound/requests/:id/deliveryInfos
func (g *gateway) deliveryInfos(c *fiber.Ctx) error {
	id := c.Params("id")
	g.mu.Lock()
	sub, ok := g.sent[id]
	g.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"requestError": "unknown message"})
	}

	status := "MessageWaiting"
	switch {
	case strings.HasSuffix(sub.address, "00"):
		status = "DeliveryImpossible"
	case g.now().Sub(sub.submittedAt) >= g.deliveryDelay:
		status = "DeliveredToTerminal"
	}

	return c.JSON(fiber.Map{
		"deliveryInfos": fiber.Map{"address": sub.address, "deliveryStatus": status},
	})
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	addr := getenv("HTTP_ADDR", ":9090")
	delay, err := time.ParseDuration(getenv("DELIVERY_DELAY", "5s"))
	if err != nil {
		log.Error("parse DELIVERY_DELAY", "err", err)
		os.Exit(1)
	}

	fiberApp := fiber.New(fiber.Config{AppName: "mock-orange", DisableStartupMessage: true})
	newGateway(delay, log).routes(fiberApp)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("mock-orange listening", "addr", addr)
		if err := fiberApp.Listen(addr); err != nil {
			log.Error("fiber listen", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down mock-orange")
	_ = fiberApp.Shutdown()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
