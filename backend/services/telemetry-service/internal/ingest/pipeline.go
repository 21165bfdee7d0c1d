package ingest

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/broker"
	"shuttletrack/backend/services/telemetry-service/internal/cache"
	"shuttletrack/backend/services/telemetry-service/internal/metrics"
	"shuttletrack/backend/services/telemetry-service/internal/models"
	"shuttletrack/backend/services/telemetry-service/internal/repository"
)

// ShuttleStore is the live-state surface the pipeline writes to.
type ShuttleStore interface {
	GetByMAC(ctx context.Context, mac string) (*models.Shuttle, error)
	UpsertTelemetry(ctx context.Context, u repository.TelemetryUpdate) error
	UpsertPosition(ctx context.Context, mac string, lat, lon float64) error
	UpdateSeats(ctx context.Context, mac string, seats int) error
}

// HistoryStore appends immutable samples.
type HistoryStore interface {
	Append(ctx context.Context, s models.LocationSample) error
}

// BlockedStore answers block-list lookups.
type BlockedStore interface {
	IsBlocked(ctx context.Context, mac string) (bool, error)
}

// ZoneMatcher sweeps zones for a resolved position.
type ZoneMatcher interface {
	Match(ctx context.Context, mac string, lat, lon, pm25, pm10 float64, updateAverages bool)
}

// PositionCache is the optional fast path for last-known-position lookups.
type PositionCache interface {
	Get(ctx context.Context, mac string) (*cache.Position, error)
	Set(ctx context.Context, mac string, p cache.Position) error
}

// Publisher re-emits processed updates to the broker.
type Publisher interface {
	Publish(topic string, payload []byte)
}

// LiveFeed mirrors re-emitted updates to connected websocket clients.
type LiveFeed interface {
	Broadcast(payload []byte)
}

// Options tune pipeline policy.
type Options struct {
	// ZoneMatchOnPositionOnly enables zone sweeps for fast fixes. Such sweeps
	// record visits but never blend the (absent) sensor values into averages.
	ZoneMatchOnPositionOnly bool
	// TotalSeats converts a door passenger count into seat availability.
	TotalSeats int
	// DoorCounterMAC is the shuttle the door counter hardware belongs to.
	DoorCounterMAC string
}

// Pipeline executes one validated reading: resolve position, persist live
// state and history, sweep zones and decide on re-broadcast. It runs on the
// dispatcher worker; store failures are logged and the remaining steps
// continue, so one bad write never stalls ingestion.
type Pipeline struct {
	shuttles  ShuttleStore
	history   HistoryStore
	blocked   BlockedStore
	zones     ZoneMatcher
	positions PositionCache
	publisher Publisher
	live      LiveFeed
	metrics   *metrics.Metrics
	logger    *zap.Logger
	opts      Options
}

// NewPipeline wires the processing steps. positions and live may be nil.
func NewPipeline(
	shuttles ShuttleStore,
	history HistoryStore,
	blocked BlockedStore,
	zones ZoneMatcher,
	positions PositionCache,
	publisher Publisher,
	live LiveFeed,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts Options,
) *Pipeline {
	if opts.TotalSeats <= 0 {
		opts.TotalSeats = 33
	}
	return &Pipeline{
		shuttles:  shuttles,
		history:   history,
		blocked:   blocked,
		zones:     zones,
		positions: positions,
		publisher: publisher,
		live:      live,
		metrics:   m,
		logger:    logger,
		opts:      opts,
	}
}

// Process handles one reading to completion.
func (p *Pipeline) Process(ctx context.Context, r Reading) {
	switch reading := r.(type) {
	case *FullReading:
		p.processFull(ctx, reading)
	case *PositionReading:
		p.processPosition(ctx, reading)
	case *OccupancyReading:
		p.processOccupancy(ctx, reading)
	default:
		p.logger.Warn("unknown reading type")
		return
	}
	if p.metrics != nil {
		p.metrics.MessagesProcessed.WithLabelValues(r.Class().String()).Inc()
	}
}

func (p *Pipeline) processFull(ctx context.Context, r *FullReading) {
	if p.isBlocked(ctx, r.MAC) {
		return
	}

	lat, lon := r.Lat, r.Lon
	if lat == nil || lon == nil {
		lat, lon = p.resolvePosition(ctx, r.MAC)
	}

	update := repository.TelemetryUpdate{
		MACAddress:     r.MAC,
		Name:           r.Name,
		Lat:            lat,
		Lon:            lon,
		SeatsAvailable: r.Seats,
		PM25:           r.PM25,
		PM10:           r.PM10,
		Temp:           r.Temp,
		Hum:            r.Hum,
	}
	if err := p.shuttles.UpsertTelemetry(ctx, update); err != nil {
		p.logger.Error("failed to upsert shuttle state",
			zap.String("mac", r.MAC), zap.Error(err))
	}

	// History, cache and zone sweep all require a resolved position. Without
	// one the live sensor update above is all this message contributes.
	if lat != nil && lon != nil {
		sample := models.LocationSample{
			MACAddress: r.MAC,
			Lat:        *lat,
			Lon:        *lon,
			PM25:       r.PM25,
			PM10:       r.PM10,
			Temp:       r.Temp,
			Hum:        r.Hum,
			RecordedAt: r.ReceivedAt,
		}
		if err := p.history.Append(ctx, sample); err != nil {
			p.logger.Error("failed to append history sample",
				zap.String("mac", r.MAC), zap.Error(err))
		}

		p.cachePosition(ctx, r.MAC, *lat, *lon)

		if p.zones != nil {
			p.zones.Match(ctx, r.MAC, *lat, *lon, r.PM25, r.PM10, true)
		}
	}

	p.republish(ctx, r.MAC)
}

func (p *Pipeline) processPosition(ctx context.Context, r *PositionReading) {
	if p.isBlocked(ctx, r.MAC) {
		return
	}

	if err := p.shuttles.UpsertPosition(ctx, r.MAC, r.Lat, r.Lon); err != nil {
		p.logger.Error("failed to upsert shuttle position",
			zap.String("mac", r.MAC), zap.Error(err))
	}

	sample := models.LocationSample{
		MACAddress: r.MAC,
		Lat:        r.Lat,
		Lon:        r.Lon,
		RecordedAt: r.ReceivedAt,
	}
	if err := p.history.Append(ctx, sample); err != nil {
		p.logger.Error("failed to append history sample",
			zap.String("mac", r.MAC), zap.Error(err))
	}

	p.cachePosition(ctx, r.MAC, r.Lat, r.Lon)

	if p.zones != nil && p.opts.ZoneMatchOnPositionOnly {
		p.zones.Match(ctx, r.MAC, r.Lat, r.Lon, 0, 0, false)
	}

	// Never re-emitted: the zeroed sensor fields of a fast fix would clobber
	// the last full snapshot on every consumer display.
}

func (p *Pipeline) processOccupancy(ctx context.Context, r *OccupancyReading) {
	seats := p.opts.TotalSeats - r.Count
	if seats < 0 {
		seats = 0
	}
	if seats > p.opts.TotalSeats {
		seats = p.opts.TotalSeats
	}

	if err := p.shuttles.UpdateSeats(ctx, p.opts.DoorCounterMAC, seats); err != nil {
		p.logger.Error("failed to update seat availability",
			zap.String("mac", p.opts.DoorCounterMAC), zap.Error(err))
		return
	}

	p.republish(ctx, p.opts.DoorCounterMAC)
}

func (p *Pipeline) isBlocked(ctx context.Context, mac string) bool {
	if p.blocked == nil {
		return false
	}
	blocked, err := p.blocked.IsBlocked(ctx, mac)
	if err != nil {
		// Block-list lookup failure must not drop telemetry.
		p.logger.Warn("block list lookup failed", zap.String("mac", mac), zap.Error(err))
		return false
	}
	if blocked {
		p.logger.Info("dropped reading from blocked device", zap.String("mac", mac))
	}
	return blocked
}

// resolvePosition returns the device's last known fix: redis first, then the
// live record. Both misses mean the device has never reported a position.
func (p *Pipeline) resolvePosition(ctx context.Context, mac string) (*float64, *float64) {
	if p.positions != nil {
		pos, err := p.positions.Get(ctx, mac)
		if err != nil {
			p.logger.Debug("position cache lookup failed", zap.String("mac", mac), zap.Error(err))
		} else if pos != nil {
			return &pos.Lat, &pos.Lon
		}
	}

	shuttle, err := p.shuttles.GetByMAC(ctx, mac)
	if err != nil {
		p.logger.Error("failed to load shuttle for position resolution",
			zap.String("mac", mac), zap.Error(err))
		return nil, nil
	}
	if shuttle == nil || shuttle.CurrentLat == nil || shuttle.CurrentLon == nil {
		return nil, nil
	}
	return shuttle.CurrentLat, shuttle.CurrentLon
}

func (p *Pipeline) cachePosition(ctx context.Context, mac string, lat, lon float64) {
	if p.positions == nil {
		return
	}
	if err := p.positions.Set(ctx, mac, cache.Position{Lat: lat, Lon: lon}); err != nil {
		p.logger.Debug("failed to cache position", zap.String("mac", mac), zap.Error(err))
	}
}

// republish reads the freshly merged live record back and emits it on the
// live-location topic and the websocket feed.
func (p *Pipeline) republish(ctx context.Context, mac string) {
	shuttle, err := p.shuttles.GetByMAC(ctx, mac)
	if err != nil || shuttle == nil {
		p.logger.Warn("skipping re-broadcast, live record unavailable",
			zap.String("mac", mac), zap.Error(err))
		return
	}

	payload, err := json.Marshal(shuttle)
	if err != nil {
		p.logger.Error("failed to encode live update", zap.String("mac", mac), zap.Error(err))
		return
	}

	if p.publisher != nil {
		p.publisher.Publish(broker.TopicLiveLocation, payload)
	}
	if p.live != nil {
		p.live.Broadcast(payload)
	}
	if p.metrics != nil {
		p.metrics.Republished.Inc()
	}
}
