package http

import (
	"github.com/gofiber/fiber/v2"
)

// ResponseErr is the {error} body returned on every failure.
type ResponseErr struct {
	Error string `json:"error"`
}

// WithRepErr writes status and {"error": msg}.
func WithRepErr(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ResponseErr{Error: msg})
}

// WithRepCode writes one of the predefined responses as an error body.
func WithRepCode(c *fiber.Ctx, rep *Response) error {
	return WithRepErr(c, rep.Code, rep.Msg)
}
