package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-traildiary/internal/difficulty"
	"backend-traildiary/internal/gpx"
	"backend-traildiary/internal/job"
	"backend-traildiary/internal/simplify"
	"backend-traildiary/internal/telemetry"
	"backend-traildiary/internal/trip"
)

// Config carries the pipeline tunables for one dispatcher. Nothing here is
// process-wide state; the server builds it from the environment and hands it
// in.
type Config struct {
	// MaxFileBytes rejects oversized uploads before any parsing happens.
	MaxFileBytes int64
	// AsyncFileBytes is the boundary between inline and background publish.
	AsyncFileBytes int64
	PreviewTimeout time.Duration
	PublishTimeout time.Duration
	// EpsilonM is the simplification deviation tolerance in meters.
	EpsilonM float64
	// PreFilterGapM thins points closer than this many meters before the
	// main simplification pass. Zero disables the pre-filter.
	PreFilterGapM float64
	Thresholds    difficulty.Thresholds
}

func DefaultConfig() Config {
	return Config{
		MaxFileBytes:   20 << 20,
		AsyncFileBytes: 1 << 20,
		PreviewTimeout: 2 * time.Second,
		PublishTimeout: 30 * time.Second,
		EpsilonM:       10,
		PreFilterGapM:  5,
		Thresholds:     difficulty.DefaultThresholds(),
	}
}

// RouteStore is the persistence collaborator. SaveRoute must be atomic: on
// error no trace of the route or its POIs may remain visible.
type RouteStore interface {
	SaveRoute(ctx context.Context, route trip.Route, pois []trip.POI) (string, error)
}

// Dispatcher owns the preview and publish paths. Each invocation works on
// its own parsed track, so dispatchers are safe for concurrent use without
// any locking of their own.
type Dispatcher struct {
	cfg   Config
	store RouteStore
	jobs  *job.Tracker
}

func NewDispatcher(cfg Config, store RouteStore, jobs *job.Tracker) *Dispatcher {
	return &Dispatcher{cfg: cfg, store: store, jobs: jobs}
}

// Analyze is the quick preview path: parse and extract telemetry only, no
// simplification and no persistence. The preview timeout is enforced
// cooperatively: the decode itself is not interruptible, so a document can
// overrun the budget by one parse before the deadline is noticed. The size
// cap bounds how long that parse can take.
func (d *Dispatcher) Analyze(ctx context.Context, data []byte) (telemetry.Telemetry, error) {
	if err := d.checkSize(data); err != nil {
		return telemetry.Telemetry{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.PreviewTimeout)
	defer cancel()

	track, err := gpx.Parse(data)
	if err != nil {
		return telemetry.Telemetry{}, err
	}
	if err := ctx.Err(); err != nil {
		return telemetry.Telemetry{}, fmt.Errorf("%w: preview parse: %v", ErrProcessingTimeout, err)
	}
	return telemetry.Extract(track), nil
}

type PublishRequest struct {
	TripID     string
	Name       string
	UploadedBy string
	POIs       []trip.POI
}

type PublishResult struct {
	RouteID    string              `json:"route_id"`
	Telemetry  telemetry.Telemetry `json:"telemetry"`
	Difficulty difficulty.Tier     `json:"difficulty"`
	Track      gpx.Track           `json:"track"`
}

// PublishOutcome is either an inline result or the handle of a background
// job, never both.
type PublishOutcome struct {
	JobID  string         `json:"job_id,omitempty"`
	Result *PublishResult `json:"result,omitempty"`
}

// Publish runs the full path: parse, extract, simplify, classify, persist.
// Inputs at or below the async threshold run inline under the publish
// timeout; larger uploads are handed to a worker and tracked as a job.
func (d *Dispatcher) Publish(ctx context.Context, data []byte, req PublishRequest) (PublishOutcome, error) {
	if err := d.checkSize(data); err != nil {
		return PublishOutcome{}, err
	}

	if int64(len(data)) <= d.cfg.AsyncFileBytes {
		ctx, cancel := context.WithTimeout(ctx, d.cfg.PublishTimeout)
		defer cancel()

		result, err := d.process(ctx, data, req)
		if err != nil {
			return PublishOutcome{}, err
		}
		return PublishOutcome{Result: result}, nil
	}

	snap, err := d.jobs.Submit(func(jobCtx context.Context) (any, error) {
		return d.process(jobCtx, data, req)
	})
	if err != nil {
		return PublishOutcome{}, err
	}
	return PublishOutcome{JobID: snap.ID}, nil
}

// JobStatus exposes the tracker to the transport layer.
func (d *Dispatcher) JobStatus(id string) (job.Snapshot, bool) {
	return d.jobs.Status(id)
}

func (d *Dispatcher) process(ctx context.Context, data []byte, req PublishRequest) (*PublishResult, error) {
	track, err := gpx.Parse(data)
	if err != nil {
		return nil, err
	}
	tel := telemetry.Extract(track)

	work := track
	if d.cfg.PreFilterGapM > 0 {
		work = simplify.PreFilter(track, d.cfg.PreFilterGapM)
	}
	simplified, err := simplify.Simplify(ctx, work, d.cfg.EpsilonM)
	if err != nil {
		return nil, normalizeTimeout(err)
	}

	tier := difficulty.Classify(tel.DistanceKm, tel.ElevationGainM, d.cfg.Thresholds)

	routeID, err := d.store.SaveRoute(ctx, trip.Route{
		TripID:     req.TripID,
		Name:       req.Name,
		UploadedBy: req.UploadedBy,
		Telemetry:  tel,
		Difficulty: tier,
		Track:      simplified,
		PointCount: simplified.Len(),
	}, req.POIs)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, normalizeTimeout(err)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	return &PublishResult{RouteID: routeID, Telemetry: tel, Difficulty: tier, Track: simplified}, nil
}

func (d *Dispatcher) checkSize(data []byte) error {
	if int64(len(data)) > d.cfg.MaxFileBytes {
		return fmt.Errorf("%w: %d bytes over cap %d", ErrFileTooLarge, len(data), d.cfg.MaxFileBytes)
	}
	return nil
}

func normalizeTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrProcessingTimeout, err)
	}
	return err
}
