// Package missionbus bridges Heimdall to the ASGARD NATS bus: external
// mission pattern generators publish realized missions for registration,
// and Heimdall publishes WARNING-or-above conflicts outward for NYSUS to relay.
package missionbus

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/PossumXI/Asgard/Heimdall/internal/engine"
	"github.com/PossumXI/Asgard/Heimdall/internal/mission"
	"github.com/PossumXI/Asgard/Heimdall/internal/risk"
	"github.com/PossumXI/Asgard/Heimdall/pkg/logging"
)

// Subjects mirror the asgard.<component>.* naming convention used by
// NYSUS/PERCILA's own bridges.
const (
	SubjectTrafficRegister = "asgard.heimdall.traffic.register"
	SubjectConflictAlert   = "asgard.heimdall.conflict.alert"
)

// ConflictAlert is the outward-facing JSON shape published for conflicts at
// or above WARNING severity.
type ConflictAlert struct {
	PrimaryID      string    `json:"primary_id"`
	OtherID        string    `json:"other_id"`
	Severity       string    `json:"severity"`
	RiskScore      float64   `json:"risk_score"`
	Time           float64   `json:"time"`
	Recommendation string    `json:"recommendation"`
	PublishedAt    time.Time `json:"published_at"`
}

// Bridge owns the NATS connection and the single registration subscription.
type Bridge struct {
	mu      sync.RWMutex
	nc      *nats.Conn
	sub     *nats.Subscription
	eng     *engine.Engine
	running bool
}

// New constructs a Bridge that will register incoming traffic missions
// against eng — the same RegisterMission path the HTTP API uses, so there
// is exactly one registration code path.
func New(eng *engine.Engine) *Bridge {
	return &Bridge{eng: eng}
}

// Connect dials the NATS server at url.
func (b *Bridge) Connect(url string) error {
	nc, err := nats.Connect(url,
		nats.Name("heimdall"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.Logger.Infof("missionbus: reconnected to %s", c.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(c *nats.Conn, err error) {
			if err != nil {
				logging.Logger.Warnf("missionbus: disconnected: %v", err)
			}
		}),
		nats.ErrorHandler(func(c *nats.Conn, s *nats.Subscription, err error) {
			logging.Logger.Errorf("missionbus: nats error: %v", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("missionbus: connect to %s: %w", url, err)
	}
	b.mu.Lock()
	b.nc = nc
	b.mu.Unlock()
	return nil
}

// Start subscribes to the traffic registration subject.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}
	if b.nc == nil {
		return fmt.Errorf("missionbus: not connected")
	}

	sub, err := b.nc.Subscribe(SubjectTrafficRegister, b.handleTrafficRegister)
	if err != nil {
		return fmt.Errorf("missionbus: subscribe %s: %w", SubjectTrafficRegister, err)
	}
	b.sub = sub
	b.running = true
	logging.Logger.Infof("missionbus: subscribed to %s", SubjectTrafficRegister)
	return nil
}

// Stop unsubscribes and drains the connection.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return nil
	}
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			logging.Logger.Warnf("missionbus: unsubscribe error: %v", err)
		}
	}
	if b.nc != nil {
		if err := b.nc.Drain(); err != nil {
			logging.Logger.Warnf("missionbus: drain error: %v", err)
		}
	}
	b.running = false
	return nil
}

func (b *Bridge) handleTrafficRegister(msg *nats.Msg) {
	var m mission.Mission
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		logging.Logger.Errorf("missionbus: invalid traffic mission payload: %v", err)
		return
	}
	if err := b.eng.RegisterMission(&m); err != nil {
		logging.Logger.Warnf("missionbus: registration rejected for %s: %v", m.DroneID, err)
		return
	}
	logging.Logger.Infof("missionbus: registered traffic mission %s", m.DroneID)
}

// PublishConflicts publishes every WARNING-or-above conflict from result on
// the outward alert subject.
func (b *Bridge) PublishConflicts(primaryID string, conflicts []risk.AssessedConflict) {
	b.mu.RLock()
	nc := b.nc
	b.mu.RUnlock()
	if nc == nil {
		return
	}

	warningRank := risk.SeverityWarning.Rank()
	for _, c := range conflicts {
		if c.Severity.Rank() < warningRank {
			continue
		}
		alert := ConflictAlert{
			PrimaryID:      primaryID,
			OtherID:        c.OtherID,
			Severity:       string(c.Severity),
			RiskScore:      c.RiskScore,
			Time:           c.Time,
			Recommendation: c.Recommendation,
			PublishedAt:    time.Now().UTC(),
		}
		data, err := json.Marshal(alert)
		if err != nil {
			logging.Logger.Errorf("missionbus: marshal conflict alert: %v", err)
			continue
		}
		if err := nc.Publish(SubjectConflictAlert, data); err != nil {
			logging.Logger.Errorf("missionbus: publish conflict alert: %v", err)
		}
	}
}
