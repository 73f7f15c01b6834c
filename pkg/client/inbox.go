package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrInFlight is returned when a decision for the same request is still running.
var ErrInFlight = errors.New("a decision for this request is already in flight")

// ApprovalInbox keeps the caller's pending approvals fresh and sends each
// decision at most once while it is in flight. After any decision outcome the
// server decides what is pending, so the list is refetched.
type ApprovalInbox struct {
	client *Client
	poller *Poller[[]ApprovalRequest]
	logger *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewApprovalInbox polls the pending list every interval once started.
// onChange may be nil.
func NewApprovalInbox(c *Client, interval time.Duration, onChange func([]ApprovalRequest), logger *zap.Logger) *ApprovalInbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalInbox{
		client:   c,
		poller:   NewPoller[[]ApprovalRequest](interval, c.PendingApprovals, onChange, logger),
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

func (b *ApprovalInbox) Start(ctx context.Context) { b.poller.Start(ctx) }

// Stop ends polling; results arriving afterwards are discarded.
func (b *ApprovalInbox) Stop() { b.poller.Stop() }

// Pending returns the last fetched list.
func (b *ApprovalInbox) Pending() []ApprovalRequest {
	items, _ := b.poller.Latest()
	return items
}

// Refresh refetches the pending list now.
func (b *ApprovalInbox) Refresh(ctx context.Context) error {
	return b.poller.Refresh(ctx)
}

func (b *ApprovalInbox) Approve(ctx context.Context, id, comments string) (ApprovalRequest, error) {
	return b.dispatch(ctx, id, func() (ApprovalRequest, error) {
		return b.client.Approve(ctx, id, comments)
	})
}

// Reject returns ErrMissingReason for a blank reason without sending anything.
func (b *ApprovalInbox) Reject(ctx context.Context, id, reason string) (ApprovalRequest, error) {
	return b.dispatch(ctx, id, func() (ApprovalRequest, error) {
		return b.client.Reject(ctx, id, reason)
	})
}

func (b *ApprovalInbox) dispatch(ctx context.Context, id string, send func() (ApprovalRequest, error)) (ApprovalRequest, error) {
	b.mu.Lock()
	if _, busy := b.inFlight[id]; busy {
		b.mu.Unlock()
		return ApprovalRequest{}, ErrInFlight
	}
	b.inFlight[id] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.inFlight, id)
		b.mu.Unlock()
	}()

	result, err := send()
	if errors.Is(err, ErrMissingReason) {
		return ApprovalRequest{}, err
	}

	// On 404/409 our snapshot was stale: someone else resolved or removed it.
	if status := StatusCode(err); err == nil || status == http.StatusConflict || status == http.StatusNotFound {
		b.poller.Update(func(items []ApprovalRequest) []ApprovalRequest { return without(items, id) })
	}

	if rerr := b.poller.Refresh(ctx); rerr != nil {
		b.logger.Debug("refresh after decision failed", zap.String("id", id), zap.Error(rerr))
	}
	return result, err
}

func without(items []ApprovalRequest, id string) []ApprovalRequest {
	out := make([]ApprovalRequest, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
