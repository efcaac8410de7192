package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/sirupsen/logrus"

	"example.com/fleetops/services/scheduler/config"
)

// MessageHandler processes one received message body
type MessageHandler func(ctx context.Context, body []byte) error

// ServiceBusClient is an interface for Azure Service Bus operations
type ServiceBusClient interface {
	// SendMessage publishes a message to the decision queue
	SendMessage(ctx context.Context, body interface{}) error
	// ProcessMessages receives from the trip-events queue until ctx is done
	ProcessMessages(ctx context.Context, handler MessageHandler) error
	Close() error
}

// serviceBusClient implements the ServiceBusClient interface
type serviceBusClient struct {
	client     *azservicebus.Client
	sender     *azservicebus.Sender
	receiveQ   string
	clientType string
	log        *logrus.Logger
}

// mockServiceBusClient is a mock implementation for local development
type mockServiceBusClient struct {
	clientType string
	log        *logrus.Logger
}

// NewServiceBusClient creates a new Azure Service Bus client. Without a
// connection string a mock client is returned for local development.
func NewServiceBusClient(cfg config.ServiceBusConfig, clientType string, log *logrus.Logger) (ServiceBusClient, error) {
	if cfg.ConnectionString == "" {
		return &mockServiceBusClient{clientType: clientType, log: log}, nil
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	sender, err := client.NewSender(cfg.DecisionQueue, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &serviceBusClient{
		client:     client,
		sender:     sender,
		receiveQ:   cfg.TripEventsQueue,
		clientType: clientType,
		log:        log,
	}, nil
}

// SendMessage sends a message to the decision queue
func (s *serviceBusClient) SendMessage(ctx context.Context, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message body: %w", err)
	}

	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"source": s.clientType,
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	}

	return s.sender.SendMessage(ctx, msg, nil)
}

// ProcessMessages receives trip events in batches and hands each body to the
// handler. A handler error abandons the message back to the queue.
func (s *serviceBusClient) ProcessMessages(ctx context.Context, handler MessageHandler) error {
	receiver, err := s.client.NewReceiverForQueue(s.receiveQ, nil)
	if err != nil {
		return fmt.Errorf("failed to create Service Bus receiver: %w", err)
	}
	defer receiver.Close(context.Background())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		messages, err := receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.WithError(err).Error("Failed to receive messages, retrying...")
			time.Sleep(2 * time.Second)
			continue
		}

		for _, message := range messages {
			if err := handler(ctx, message.Body); err != nil {
				s.log.WithError(err).WithField("message_id", message.MessageID).
					Error("Failed to process message")
				if err := receiver.AbandonMessage(ctx, message, nil); err != nil {
					s.log.WithError(err).Error("Failed to abandon message")
				}
				continue
			}

			if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
				s.log.WithError(err).Error("Failed to complete message")
			}
		}
	}
}

// Close closes the Service Bus client
func (s *serviceBusClient) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if s.client != nil {
		return s.client.Close(context.Background())
	}
	return nil
}

// SendMessage implementation for mock client
func (m *mockServiceBusClient) SendMessage(ctx context.Context, body interface{}) error {
	m.log.WithField("source", m.clientType).Debugf("[MOCK ServiceBus] Message sent: %+v", body)
	return nil
}

// ProcessMessages implementation for mock client blocks until cancelled
func (m *mockServiceBusClient) ProcessMessages(ctx context.Context, handler MessageHandler) error {
	<-ctx.Done()
	return ctx.Err()
}

// Close implementation for mock client
func (m *mockServiceBusClient) Close() error {
	return nil
}
