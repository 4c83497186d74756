package service

import (
	"context"

	"solarwatch/internal/logger"
	"solarwatch/internal/metrics"
	"solarwatch/internal/models"
)

// GatewayMessage is the fan-out envelope for one processed gateway record.
type GatewayMessage struct {
	Type       string         `json:"type"`
	SenderID   int            `json:"sender_id"`
	SensorData models.Reading `json:"sensor_data"`
	Prediction models.Verdict `json:"prediction"`
	Timestamp  int64          `json:"timestamp"`
}

// PipelineService runs the read→classify→suppress→dispatch sequence. The
// session loop drives it once per tick; the batch entry point drives it once
// per valid gateway record.
type PipelineService struct {
	sources    Sources
	classifier Classifier
	supp       *Suppressor
	disp       *Dispatcher
	alerts     *AlertService
	bus        Broadcaster
	log        *logger.Logger
}

func NewPipelineService(sources Sources, classifier Classifier, supp *Suppressor, disp *Dispatcher, alerts *AlertService, bus Broadcaster, log *logger.Logger) *PipelineService {
	return &PipelineService{
		sources:    sources,
		classifier: classifier,
		supp:       supp,
		disp:       disp,
		alerts:     alerts,
		bus:        bus,
		log:        log,
	}
}

// Tick processes one sample for a live session: obtain a reading for the
// session's transport, classify it, run the suppression policy, and dispatch
// when approved. Only a missing model surfaces as an error.
func (p *PipelineService) Tick(ctx context.Context, sess *Session) (models.Reading, models.Verdict, error) {
	reading := p.sources.Next(sess.Mode, sess.FaultType)

	verdict, err := p.classifier.Classify(reading)
	if err != nil {
		return models.Reading{}, models.Verdict{}, err
	}

	if !verdict.IsFault {
		// Back to Normal clears the suppression memory.
		p.supp.Reset()
	} else if sess.AlertsEnabled && sess.AlertDestination != "" {
		if p.supp.Approve(verdict.FaultType, sess.Mode == ModeSimulator) {
			p.disp.Dispatch(sess.AlertDestination, verdict, reading)
		} else {
			metrics.AlertsSuppressed.Inc()
		}
	}

	metrics.ReadingsProcessed.WithLabelValues(sess.Mode).Inc()
	return reading, verdict, nil
}

// ProcessBatch runs the identical classify→suppress→dispatch→broadcast
// sequence once per valid batch element, synchronously, and returns how many
// elements were processed. Elements failing range validation are skipped like
// invalid ones; a missing model aborts with the count so far.
func (p *PipelineService) ProcessBatch(ctx context.Context, recs []models.GatewayRecord) (int, error) {
	dest, enabled := p.alerts.Snapshot()

	processed := 0
	for _, rec := range recs {
		if !rec.Valid {
			continue
		}
		reading, err := rec.Reading()
		if err != nil {
			if p.log != nil {
				p.log.Warnw("gateway_record_rejected", "sender", rec.SenderID, "err", err)
			}
			continue
		}

		verdict, err := p.classifier.Classify(reading)
		if err != nil {
			return processed, err
		}

		if verdict.IsFault && enabled && dest != "" {
			if p.supp.Approve(verdict.FaultType, false) {
				p.disp.Dispatch(dest, verdict, reading)
			} else {
				metrics.AlertsSuppressed.Inc()
			}
		}

		if p.bus != nil {
			p.bus.Broadcast(GatewayMessage{
				Type:       "gateway_data",
				SenderID:   rec.SenderID,
				SensorData: reading,
				Prediction: verdict,
				Timestamp:  rec.GatewayTimestampMS,
			})
		}

		metrics.ReadingsProcessed.WithLabelValues(ModeGateway).Inc()
		processed++
	}
	return processed, nil
}
