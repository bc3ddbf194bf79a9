// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package notify is the in-process message bus between the query layer and
// the dashboard transport. The query layer publishes user-facing notices
// (decision outcomes, session expiry) and cache update markers; the
// WebSocket hub subscribes and forwards to connected browsers.
package notify

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/nsa-x/console/internal/logging"
)

// Topics carried on the bus.
const (
	TopicNotices      = "console.notices"
	TopicQueryUpdates = "console.query.updates"
)

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	LevelInfo    NoticeLevel = "info"
	LevelSuccess NoticeLevel = "success"
	LevelError   NoticeLevel = "error"
)

// Notice is a toast-style message for the dashboard.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// QueryUpdate marks a cache key whose contents changed, so clients watching
// that resource re-read it.
type QueryUpdate struct {
	Key      string `json:"key"`
	Resource string `json:"resource"`
}

// Bus is an in-memory Pub/Sub. Subscribers that fall behind do not block
// publishers; the output buffer absorbs bursts.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus builds the bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, newWatermillLogger()),
	}
}

// PublishNotice emits a user-facing notice. Publish failures are logged and
// swallowed; a lost toast must never fail the operation that produced it.
func (b *Bus) PublishNotice(n Notice) {
	b.publish(TopicNotices, n)
}

// PublishQueryUpdate marks a changed cache key.
func (b *Bus) PublishQueryUpdate(u QueryUpdate) {
	b.publish(TopicQueryUpdates, u)
}

func (b *Bus) publish(topic string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("Failed to encode bus message")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), raw)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("Failed to publish bus message")
	}
}

// SubscribeNotices delivers notices until ctx is cancelled.
func (b *Bus) SubscribeNotices(ctx context.Context) (<-chan Notice, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicNotices)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicNotices, err)
	}
	out := make(chan Notice, 16)
	go decodeLoop(messages, out)
	return out, nil
}

// SubscribeQueryUpdates delivers cache update markers until ctx is cancelled.
func (b *Bus) SubscribeQueryUpdates(ctx context.Context) (<-chan QueryUpdate, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicQueryUpdates)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicQueryUpdates, err)
	}
	out := make(chan QueryUpdate, 16)
	go decodeLoop(messages, out)
	return out, nil
}

// Close shuts the bus down, closing all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

func decodeLoop[T any](messages <-chan *message.Message, out chan<- T) {
	defer close(out)
	for msg := range messages {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			logging.Warn().Err(err).Msg("Dropping undecodable bus message")
			msg.Ack()
			continue
		}
		msg.Ack()
		out <- payload
	}
}

// watermillLogger bridges Watermill's logging into zerolog.
type watermillLogger struct {
	fields watermill.LogFields
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	logging.Error().Err(err).Fields(map[string]interface{}(l.fields.Add(fields))).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]interface{}(l.fields.Add(fields))).Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]interface{}(l.fields.Add(fields))).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]interface{}(l.fields.Add(fields))).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{fields: l.fields.Add(fields)}
}
