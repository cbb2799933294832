package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/galatadergisi/galata-backend/pkg/config"
	"github.com/galatadergisi/galata-backend/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	errProjectIDRequired = errors.New("pubsub: gcp project id is required")
	errTopicRequired     = errors.New("pubsub: notification topic is required")
	errNotConnected      = errors.New("pubsub: client not connected")
)

// Client publishes to the notification topic. The topic must already exist;
// provisioning it is left to infrastructure.
type Client struct {
	api       *pubsub.Client
	topic     string
	publisher *pubsub.Publisher
}

func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errProjectIDRequired
	}
	topic := TopicName(project, cfg.NotificationTopic)
	if topic == "" {
		return nil, errTopicRequired
	}

	api, err := pubsub.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("pubsub: new client: %w", err)
	}
	c := &Client{api: api, topic: topic}
	if err := c.Ping(ctx); err != nil {
		_ = api.Close()
		return nil, err
	}

	c.publisher = api.Publisher(topic)
	if cfg.PublishTimeout > 0 {
		c.publisher.PublishSettings.Timeout = cfg.PublishTimeout
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", topic), "pubsub.ready")
	}
	return c, nil
}

// TopicName expands a short topic id to its resource name. Full resource
// names pass through; an empty id or project yields "".
func TopicName(project, topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}
	if strings.HasPrefix(topic, "projects/") && strings.Contains(topic, "/topics/") {
		return topic
	}
	project = strings.TrimSpace(project)
	if project == "" {
		return ""
	}
	return "projects/" + project + "/topics/" + topic
}

func (c *Client) Topic() string {
	if c == nil {
		return ""
	}
	return c.topic
}

// NotificationPublisher is shared by every caller; Close stops it.
func (c *Client) NotificationPublisher() *pubsub.Publisher {
	if c == nil {
		return nil
	}
	return c.publisher
}

// Ping checks that the notification topic is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.api == nil {
		return errNotConnected
	}
	_, err := c.api.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.topic})
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("pubsub: topic %s does not exist", c.topic)
	default:
		return fmt.Errorf("pubsub: get topic %s: %w", c.topic, err)
	}
}

// Close flushes pending publishes and releases the connection.
func (c *Client) Close() error {
	if c == nil || c.api == nil {
		return nil
	}
	if c.publisher != nil {
		c.publisher.Stop()
	}
	return c.api.Close()
}
