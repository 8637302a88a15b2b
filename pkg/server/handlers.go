package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-wayfinder/pkg/navigation"
	"github.com/teslashibe/go-wayfinder/pkg/protocol"
)

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Status          string      `json:"status"`
	Uptime          string      `json:"uptime"`
	LastInstruction string      `json:"lastInstruction"`
	Depth           interface{} `json:"depth"`
	Speech          interface{} `json:"speech,omitempty"`
	Results         interface{} `json:"results"`
	Devices         int         `json:"devices"`
}

// handleStatus returns service health and counters
func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{
		Status:          "ok",
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		LastInstruction: s.nav.LastInstruction(),
		Depth:           s.nav.DepthStats(),
		Results:         s.results.GetStats(),
		Devices:         s.devices.DeviceCount(),
	}
	if s.config.Speech != nil {
		resp.Speech = s.config.Speech.Stats()
	}
	return c.JSON(resp)
}

// handleProcess runs one detection batch through the pipeline
func (s *Server) handleProcess(c *fiber.Ctx) error {
	requestID := c.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var req protocol.ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(protocol.ErrorData{
			RequestID: requestID,
			Message:   "invalid body: " + err.Error(),
		})
	}

	res, err := s.nav.Process(req.Input())
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, navigation.ErrInvalidView) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(protocol.ErrorData{RequestID: requestID, Message: err.Error()})
	}

	out := protocol.NewProcessResult(requestID, res)
	s.publish(out)
	return c.JSON(out)
}

// handleReset clears cached depth after a sensor pause
func (s *Server) handleReset(c *fiber.Ctx) error {
	s.nav.Reset()
	return c.JSON(fiber.Map{"status": "reset"})
}

// handleDevices lists connected detector and speaker devices
func (s *Server) handleDevices(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"devices": s.devices.DeviceInfos(),
		"count":   s.devices.DeviceCount(),
	})
}
