package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rewired-gh/readiness/internal/logger"
	"github.com/rewired-gh/readiness/internal/models"
	"github.com/rewired-gh/readiness/internal/storage"
)

// Messenger delivers a titled markdown report
type Messenger interface {
	Send(ctx context.Context, title, report string) error
}

// Archive remembers published reports
type Archive interface {
	SentWithin(ctx context.Context, digest string, window time.Duration) (bool, error)
	Record(ctx context.Context, kind, body string) (models.Report, error)
}

// Result describes the outcome of a Publish call
type Result struct {
	Sent   bool           `json:"sent"`
	Reason string         `json:"reason,omitempty"`
	Report *models.Report `json:"report,omitempty"`
}

// Publisher sends reports and suppresses repeats within the cooldown.
// Without an archive, repeats are tracked in memory for the process lifetime.
type Publisher struct {
	messenger Messenger
	archive   Archive
	cooldown  time.Duration

	mu       sync.Mutex
	notified map[string]time.Time // digest -> sent at, used when archive is nil
	inflight map[string]bool      // digests currently being sent
	now      func() time.Time
}

// NewPublisher creates a Publisher. archive may be nil.
func NewPublisher(m Messenger, archive Archive, cooldown time.Duration) *Publisher {
	return &Publisher{
		messenger: m,
		archive:   archive,
		cooldown:  cooldown,
		notified:  make(map[string]time.Time),
		inflight:  make(map[string]bool),
		now:       time.Now,
	}
}

var titles = map[string]string{
	models.ReportKindSummary:  "Dynamic Readiness Interpreter",
	models.ReportKindExtremes: "Readiness Extremes",
}

// Publish sends body unless the same text was published within the cooldown
func (p *Publisher) Publish(ctx context.Context, kind, body string) (Result, error) {
	digest := storage.Digest(body)

	// the reservation is held until the report is recorded or the send fails
	if !p.reserve(digest) {
		reason := fmt.Sprintf("identical %s report is already being published", kind)
		logger.Info("Skipping publish: %s", reason)
		return Result{Sent: false, Reason: reason}, nil
	}
	defer p.release(digest)

	recent, err := p.recentlySent(ctx, digest)
	if err != nil {
		return Result{}, err
	}
	if recent {
		reason := fmt.Sprintf("identical %s report already published within %s", kind, formatDuration(p.cooldown))
		logger.Info("Skipping publish: %s", reason)
		return Result{Sent: false, Reason: reason}, nil
	}

	if err := p.messenger.Send(ctx, titles[kind], body); err != nil {
		return Result{}, fmt.Errorf("failed to publish %s report: %w", kind, err)
	}

	result := Result{Sent: true}
	if p.archive != nil {
		report, err := p.archive.Record(ctx, kind, body)
		if err != nil {
			// the message is already out; report the archive failure without failing the publish
			logger.Warn("Published %s report but failed to archive it: %v", kind, err)
		} else {
			result.Report = &report
		}
	} else {
		p.mu.Lock()
		p.notified[digest] = p.now()
		p.mu.Unlock()
	}

	logger.Info("Published %s report", kind)
	return result, nil
}

func (p *Publisher) reserve(digest string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight[digest] {
		return false
	}
	p.inflight[digest] = true
	return true
}

func (p *Publisher) release(digest string) {
	p.mu.Lock()
	delete(p.inflight, digest)
	p.mu.Unlock()
}

func (p *Publisher) recentlySent(ctx context.Context, digest string) (bool, error) {
	if p.cooldown <= 0 {
		return false, nil
	}
	if p.archive != nil {
		sent, err := p.archive.SentWithin(ctx, digest, p.cooldown)
		if err != nil {
			return false, fmt.Errorf("failed to check report archive: %w", err)
		}
		return sent, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	sentAt, ok := p.notified[digest]
	return ok && p.now().Sub(sentAt) < p.cooldown, nil
}
