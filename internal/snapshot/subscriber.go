// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package snapshot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/rollcall/internal/calendar"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/validation"
)

// subscriberBuffer bounds messages queued between NATS and the synchronizer.
const subscriberBuffer = 256

// Subscriber replays snapshots pushed on a NATS subject.
//
// Messages are decoded as models.Snapshot JSON. Undecodable or invalid
// messages are logged and dropped. Messages are processed one at a time so
// a burst never races the recorder for the same person.
type Subscriber struct {
	url     string
	subject string
	syncer  Syncer
	loc     *time.Location
	clock   calendar.Clock
	logger  zerolog.Logger

	processed atomic.Int64
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithSubscriberLocation sets the zone used to fill a missing month. Default time.Local.
func WithSubscriberLocation(loc *time.Location) SubscriberOption {
	return func(s *Subscriber) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithSubscriberClock overrides time.Now.
func WithSubscriberClock(c calendar.Clock) SubscriberOption {
	return func(s *Subscriber) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewSubscriber creates a subscriber for subject on the NATS server at url.
func NewSubscriber(url, subject string, syncer Syncer, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		url:     url,
		subject: subject,
		syncer:  syncer,
		loc:     time.Local,
		clock:   time.Now,
		logger:  logging.WithComponent("snapshot-subscriber"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Processed returns how many messages were handed to the synchronizer.
func (s *Subscriber) Processed() int64 {
	return s.processed.Load()
}

// Serve implements suture.Service. A connection failure is returned so
// the supervisor restarts the service with backoff.
func (s *Subscriber) Serve(ctx context.Context) error {
	nc, err := nats.Connect(s.url,
		nats.Name("rollcall-snapshot-subscriber"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				s.logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			s.logger.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connect NATS %s: %w", s.url, err)
	}
	defer nc.Close()

	msgs := make(chan *nats.Msg, subscriberBuffer)
	sub, err := nc.ChanSubscribe(s.subject, msgs)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	if err := nc.Flush(); err != nil {
		return fmt.Errorf("flush subscription %s: %w", s.subject, err)
	}

	s.logger.Info().Str("subject", s.subject).Msg("Snapshot subscriber started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Snapshot subscriber stopped")
			return ctx.Err()
		case msg := <-msgs:
			s.handleMessage(ctx, msg.Data)
		}
	}
}

// String implements fmt.Stringer for suture logs.
func (s *Subscriber) String() string {
	return "snapshot-subscriber"
}

func (s *Subscriber) handleMessage(ctx context.Context, data []byte) {
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		metrics.RecordSnapshotPoll("nats", resultInvalid)
		s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("Failed to decode snapshot message")
		return
	}
	if snap.Month == 0 {
		snap.Month = int(s.clock().In(s.loc).Month())
	}
	if verr := validation.ValidateStruct(&snap); verr != nil {
		metrics.RecordSnapshotPoll("nats", resultInvalid)
		s.logger.Warn().Err(verr).Str("actor", snap.Actor).Msg("Snapshot message rejected")
		return
	}

	metrics.RecordSnapshotPoll("nats", resultOK)
	s.syncer.Sync(logging.ContextWithNewCorrelationID(ctx), &snap)
	s.processed.Add(1)
}

// Publish sends snap on subject over nc. Used by producers and tests.
func Publish(nc *nats.Conn, subject string, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nc.Publish(subject, data)
}
