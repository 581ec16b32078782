package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// errorJSON writes the error envelope used by every API handler.
func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusBadRequest, "bad_request", message)
}

func internalError(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", message)
}

// GetClientIP determines the client IP address considering proxies
func GetClientIP(c *fiber.Ctx) string {
	// 1. Cloudflare provides the original client IP in this header
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}

	// 2. X-Forwarded-For can contain a list of IPs - the first one is the original client
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}

	// 3. For ::ffff: IPv4-mapped-IPv6 addresses
	return strings.TrimPrefix(c.IP(), "::ffff:")
}
