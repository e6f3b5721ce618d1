package notify

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
)

// KafkaMessenger publishes rendered reports to the messaging gateway
// topic. The gateway owns the actual email/SMS delivery.
type KafkaMessenger struct {
	writer *kafkago.Writer
	topic  string
}

func NewKafkaMessenger(writer *kafkago.Writer, topic string) *KafkaMessenger {
	return &KafkaMessenger{writer: writer, topic: topic}
}

type reportEnvelope struct {
	DriverID      string `json:"driver_id"`
	DriverName    string `json:"driver_name"`
	RegNo         string `json:"reg_no"`
	Action        string `json:"action"`
	Timestamp     string `json:"timestamp"`
	OdometerValue int64  `json:"odometer_value"`
	Body          string `json:"body"`
}

func (m *KafkaMessenger) Send(ctx context.Context, report Report) error {
	body, err := report.Render()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(reportEnvelope{
		DriverID:      report.Driver.ID,
		DriverName:    report.Driver.DisplayName,
		RegNo:         report.Driver.RegNo,
		Action:        report.Action,
		Timestamp:     report.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
		OdometerValue: report.OdometerValue,
		Body:          body,
	})
	if err != nil {
		return err
	}

	msg := kafkago.Message{
		Topic: m.topic,
		Key:   []byte(report.Driver.ID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "action", Value: []byte(report.Action)},
		},
	}

	return m.writer.WriteMessages(ctx, msg)
}
