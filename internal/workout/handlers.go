package workout

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			WorkoutType WorkoutType `json:"workout_type"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !req.WorkoutType.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "workout_type must be running, walking, cycling or hiking")
		}

		session, err := svc.Start(userID(c), req.WorkoutType)
		if errors.Is(err, ErrSessionActive) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/sessions/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var fix GeoFix
		if err := c.BodyParser(&fix); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		session, applied := svc.AddFix(userID(c), fix)
		if !applied {
			// Dropping while Idle is the contract, not a failure; callers
			// may post fixes speculatively.
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"dropped": true})
		}
		return c.JSON(session)
	})

	r.Get("/sessions/current", authMiddleware, func(c *fiber.Ctx) error {
		session, ok := svc.Current(userID(c))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active session")
		}
		return c.JSON(session)
	})

	r.Post("/sessions/end", authMiddleware, func(c *fiber.Ctx) error {
		session, ok, err := svc.End(c.Context(), userID(c))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active session")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(session)
	})

	// Fix-source socket: each text frame is one GeoFix. Closing the socket
	// cancels the stream but leaves the session active.
	r.Get("/ws/ingest", authMiddleware, websocket.New(func(c *websocket.Conn) {
		uid, _ := c.Locals("user_id").(string)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		fixes := make(chan GeoFix)
		go func() {
			defer close(fixes)
			for {
				_, msg, err := c.ReadMessage()
				if err != nil {
					return
				}
				var fix GeoFix
				if err := json.Unmarshal(msg, &fix); err != nil {
					continue
				}
				select {
				case fixes <- fix:
				case <-ctx.Done():
					return
				}
			}
		}()

		_ = svc.StreamFixes(ctx, uid, fixes)
	}))
}

func userID(c *fiber.Ctx) string {
	uid, _ := c.Locals("user_id").(string)
	return uid
}
