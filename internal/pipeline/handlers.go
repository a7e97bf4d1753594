package pipeline

import (
	"backend-traildiary/internal/trip"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, d *Dispatcher, authMiddleware fiber.Handler) {
	// preview: raw GPX in the request body, telemetry back, nothing stored
	r.Post("/analyze", func(c *fiber.Ctx) error {
		tel, err := d.Analyze(c.Context(), c.Body())
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(tel)
	})

	r.Post("/publish", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			TripID     string     `json:"trip_id"`
			Name       string     `json:"name"`
			UploadedBy string     `json:"uploaded_by"`
			GPX        []byte     `json:"gpx"`
			POIs       []trip.POI `json:"pois"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.TripID == "" || body.UploadedBy == "" || len(body.GPX) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "trip_id, uploaded_by and gpx required")
		}

		outcome, err := d.Publish(c.Context(), body.GPX, PublishRequest{
			TripID:     body.TripID,
			Name:       body.Name,
			UploadedBy: body.UploadedBy,
			POIs:       body.POIs,
		})
		if err != nil {
			return errorResponse(c, err)
		}
		if outcome.JobID != "" {
			return c.Status(fiber.StatusAccepted).JSON(outcome)
		}
		return c.Status(fiber.StatusCreated).JSON(outcome)
	})

	r.Get("/jobs/:id", func(c *fiber.Ctx) error {
		snap, ok := d.JobStatus(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "job not found")
		}

		resp := fiber.Map{"id": snap.ID, "status": snap.Status}
		if snap.Result != nil {
			resp["result"] = snap.Result
		}
		if snap.Err != nil {
			resp["error"] = Kind(snap.Err)
			resp["message"] = snap.Err.Error()
		}
		return c.JSON(resp)
	})
}

// errorResponse maps the pipeline taxonomy to a status code and a structured
// body so callers can branch on the error kind, not the message text.
func errorResponse(c *fiber.Ctx, err error) error {
	kind := Kind(err)
	return c.Status(kind.httpStatus()).JSON(fiber.Map{
		"error":   kind,
		"message": err.Error(),
	})
}
