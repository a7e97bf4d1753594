package trip

import (
	"context"
	"strconv"
	"strings"
	"time"

	"backend-traildiary/internal/db"
	"backend-traildiary/internal/gpx"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) CreateTrip(ctx context.Context, input Trip) (Trip, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO trips (id, name, region, start_date, end_date, description, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, input.ID, input.Name, input.Region, timePtr(input.StartDate), timePtr(input.EndDate), input.Description, input.CreatedBy)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Trip{}, err
	}
	return input, nil
}

func (s *Service) GetTrip(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, region, start_date, end_date, description, created_by, created_at
		FROM trips WHERE id=$1
	`, id)
	var trip Trip
	if err := row.Scan(&trip.ID, &trip.Name, &trip.Region, &trip.StartDate, &trip.EndDate, &trip.Description, &trip.CreatedBy, &trip.CreatedAt); err != nil {
		return Trip{}, err
	}
	return trip, nil
}

// SaveRoute persists a processed route and its POI child records in a single
// transaction. Any failure rolls back every write of the call so readers
// never observe a route without its POIs or vice versa.
func (s *Service) SaveRoute(ctx context.Context, route Route, pois []POI) (string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if route.ID == "" {
		route.ID = uuid.NewString()
	}
	tel := route.Telemetry
	_, err = tx.Exec(ctx, `
		INSERT INTO gpx_routes (id, trip_id, name, uploaded_by,
			distance_km, elevation_gain_m, elevation_loss_m, max_elevation_m, min_elevation_m, has_elevation,
			difficulty, point_count, route)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, ST_GeogFromText($13))
	`, route.ID, route.TripID, route.Name, route.UploadedBy,
		tel.DistanceKm, tel.ElevationGainM, tel.ElevationLossM, tel.MaxElevationM, tel.MinElevationM, tel.HasElevation,
		route.Difficulty.String(), len(route.Track.Points), lineStringWKT(route.Track))
	if err != nil {
		return "", err
	}

	for _, poi := range pois {
		if poi.ID == "" {
			poi.ID = uuid.NewString()
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO route_pois (id, route_id, name, description, kind, location)
			VALUES ($1,$2,$3,$4,$5, ST_SetSRID(ST_MakePoint($6,$7), 4326)::geography)
		`, poi.ID, route.ID, poi.Name, poi.Description, poi.Kind, poi.Lng, poi.Lat)
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return route.ID, nil
}

func (s *Service) Routes(ctx context.Context, tripID string) ([]Route, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, name, uploaded_by,
		       distance_km, elevation_gain_m, elevation_loss_m, max_elevation_m, min_elevation_m, has_elevation,
		       difficulty, point_count, created_at
		FROM gpx_routes WHERE trip_id=$1
		ORDER BY created_at DESC
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		var r Route
		var tierName string
		if err := rows.Scan(&r.ID, &r.TripID, &r.Name, &r.UploadedBy,
			&r.Telemetry.DistanceKm, &r.Telemetry.ElevationGainM, &r.Telemetry.ElevationLossM,
			&r.Telemetry.MaxElevationM, &r.Telemetry.MinElevationM, &r.Telemetry.HasElevation,
			&tierName, &r.PointCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := r.Difficulty.UnmarshalText([]byte(tierName)); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func (s *Service) POIs(ctx context.Context, routeID string) ([]POI, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, route_id, name, description, kind, ST_Y(location::geometry), ST_X(location::geometry)
		FROM route_pois WHERE route_id=$1
		ORDER BY name
	`, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pois []POI
	for rows.Next() {
		var p POI
		if err := rows.Scan(&p.ID, &p.RouteID, &p.Name, &p.Description, &p.Kind, &p.Lat, &p.Lng); err != nil {
			return nil, err
		}
		pois = append(pois, p)
	}
	return pois, nil
}

// lineStringWKT renders the simplified track as a WKT linestring for
// ST_GeogFromText, with a Z coordinate when elevation is present.
func lineStringWKT(track gpx.Track) string {
	var b strings.Builder
	if track.HasElevation {
		b.WriteString("LINESTRING Z (")
	} else {
		b.WriteString("LINESTRING(")
	}
	for i, p := range track.Points {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(p.Lon, 'f', -1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(p.Lat, 'f', -1, 64))
		if track.HasElevation {
			b.WriteByte(' ')
			b.WriteString(strconv.FormatFloat(*p.ElevationM, 'f', -1, 64))
		}
	}
	b.WriteByte(')')
	return b.String()
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
