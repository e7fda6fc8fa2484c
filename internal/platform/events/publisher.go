// Package events publishes appointment lifecycle messages for downstream
// collaborators (reminder scheduling, notification delivery). Publishing is
// fire and forget: a broker failure is logged and never propagated back into
// the booking path.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const routingKeyAppointmentCreated = "appointment.created"

// Publisher emits appointment events keyed by appointment id.
type Publisher interface {
	AppointmentCreated(ctx context.Context, appointmentID uuid.UUID, doctorID uuid.UUID, date string, slotTime string)
	Close() error
}

type appointmentCreated struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// AMQPPublisher publishes events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   zerolog.Logger
}

func NewAMQPPublisher(amqpURL, exchange string, logger zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger.With().Str("component", "events").Logger(),
	}, nil
}

func (p *AMQPPublisher) AppointmentCreated(ctx context.Context, appointmentID, doctorID uuid.UUID, date, slotTime string) {
	body, err := json.Marshal(appointmentCreated{
		AppointmentID: appointmentID,
		DoctorID:      doctorID,
		Date:          date,
		Time:          slotTime,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		p.logger.Error().Err(err).Msg("marshal appointment.created")
		return
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKeyAppointmentCreated, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		p.logger.Error().Err(err).
			Str("appointment_id", appointmentID.String()).
			Msg("publish appointment.created")
		return
	}

	p.logger.Debug().
		Str("appointment_id", appointmentID.String()).
		Msg("published appointment.created")
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) AppointmentCreated(context.Context, uuid.UUID, uuid.UUID, string, string) {}
func (NoopPublisher) Close() error                                                            { return nil }
