package controller

import (
	"encoding/json"

	"athleticare-be/internal/dto"
	"athleticare-be/internal/pkg/logger"
	"athleticare-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IProxyController exposes the public stateless endpoints. Their wire format
// is flat ({reply} / {error} / {success}), kept compatible with the
// pre-existing browser client rather than the API envelope.
type IProxyController interface {
	RegisterRoutes(app fiber.Router)
	Chat(ctx *fiber.Ctx) error
	SendConfirmation(ctx *fiber.Ctx) error
}

type proxyController struct {
	proxyService service.IProxyService
	logger       logger.ILogger
}

func NewProxyController(proxyService service.IProxyService, sysLogger logger.ILogger) IProxyController {
	return &proxyController{
		proxyService: proxyService,
		logger:       sysLogger,
	}
}

func (c *proxyController) RegisterRoutes(app fiber.Router) {
	app.Post("/chat", c.Chat)
	app.Post("/send-confirmation", c.SendConfirmation)
}

func (c *proxyController) Chat(ctx *fiber.Ctx) error {
	// Parse by hand: "messages" must be present and must be a JSON array,
	// anything else is a 400.
	var raw struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(ctx.Body(), &raw); err != nil || len(raw.Messages) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid messages format"})
	}

	var messages []dto.ProxyMessage
	if err := json.Unmarshal(raw.Messages, &messages); err != nil || messages == nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid messages format"})
	}

	reply, err := c.proxyService.Completion(ctx.Context(), messages)
	if err != nil {
		c.logger.Error("proxy", "Completion request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "AI response failed"})
	}

	return ctx.JSON(dto.ChatProxyResponse{Reply: reply})
}

func (c *proxyController) SendConfirmation(ctx *fiber.Ctx) error {
	var req dto.SendConfirmationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing data"})
	}
	if req.Email == "" || req.Firstname == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing data"})
	}

	if err := c.proxyService.SendConfirmation(req.Email, req.Firstname); err != nil {
		// Mail failure must never block signup: report success with a warning.
		c.logger.Warn("proxy", "Confirmation email failed", map[string]interface{}{
			"error": err.Error(),
			"email": req.Email,
		})
		return ctx.JSON(dto.SendConfirmationResponse{
			Success: true,
			Warning: "confirmation email could not be delivered",
		})
	}

	return ctx.JSON(dto.SendConfirmationResponse{Success: true})
}
