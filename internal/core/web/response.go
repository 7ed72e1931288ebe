package web

import "github.com/gofiber/fiber/v2"

// Envelope is the JSON body shape every endpoint returns.
type Envelope struct {
	// Success reports whether the request was handled without error.
	Success bool `json:"success"`
	// Message is a human-readable description of the outcome.
	Message string `json:"message,omitempty"`
	// Count is the number of items in Data for list responses.
	Count *int `json:"count,omitempty"`
	// Data carries the response payload.
	Data interface{} `json:"data,omitempty"`
	// Error carries the underlying error text for failed requests.
	Error string `json:"error,omitempty"`
}

// OK writes a 200 response with a payload.
func OK(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data})
}

// OKMessage writes a 200 response with a message and payload.
func OKMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Message: message, Data: data})
}

// OKList writes a 200 response with a count and payload.
func OKList(c *fiber.Ctx, count int, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Count: &count, Data: data})
}

// Created writes a 201 response with a message and payload.
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an error response with the given status and message.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}

// FailWithError writes an error response carrying the underlying error text.
func FailWithError(c *fiber.Ctx, status int, message string, err error) error {
	body := Envelope{Success: false, Message: message}
	if err != nil {
		body.Error = err.Error()
	}
	return c.Status(status).JSON(body)
}
