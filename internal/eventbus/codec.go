// Package eventbus carries report-created events over Kafka.
package eventbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

const eventTypeReportCreated = "report.created"

var errMalformed = errors.New("malformed report event")

// encodeReportCreated marshals evt into a message keyed by report id, so every
// event for one report lands on the same partition.
func encodeReportCreated(evt triage.ReportCreated, now time.Time) (kafkago.Message, error) {
	if evt.ReportID == uuid.Nil {
		return kafkago.Message{}, fmt.Errorf("%w: missing report id", errMalformed)
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(evt.ReportID.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventTypeReportCreated)},
			{Key: "published_at", Value: []byte(now.UTC().Format(time.RFC3339))},
		},
	}, nil
}

func decodeReportCreated(msg kafkago.Message) (triage.ReportCreated, error) {
	var evt triage.ReportCreated
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return triage.ReportCreated{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if evt.ReportID == uuid.Nil {
		if evt.Snapshot == nil || evt.Snapshot.ID == uuid.Nil {
			return triage.ReportCreated{}, fmt.Errorf("%w: missing report id", errMalformed)
		}
		evt.ReportID = evt.Snapshot.ID
	}
	return evt, nil
}
