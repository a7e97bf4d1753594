package trip

import (
	"time"

	"backend-traildiary/internal/difficulty"
	"backend-traildiary/internal/gpx"
	"backend-traildiary/internal/telemetry"
)

type Trip struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Region      string    `json:"region"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Route is the durable result of publishing a GPX upload: telemetry, the
// simplified renderable geometry and the derived difficulty tier. The
// difficulty column is written only from classifier output.
type Route struct {
	ID         string              `json:"id"`
	TripID     string              `json:"trip_id"`
	Name       string              `json:"name"`
	UploadedBy string              `json:"uploaded_by"`
	Telemetry  telemetry.Telemetry `json:"telemetry"`
	Difficulty difficulty.Tier     `json:"difficulty"`
	Track      gpx.Track           `json:"track"`
	PointCount int                 `json:"point_count"`
	CreatedAt  time.Time           `json:"created_at"`
}

// POI is a point-of-interest child record supplied by the caller alongside a
// publish. POIs are persisted in the same transaction as their route.
type POI struct {
	ID          string  `json:"id"`
	RouteID     string  `json:"route_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Kind        string  `json:"kind"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}
