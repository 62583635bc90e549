// Package bridge defines the host-platform capability contracts the
// client consumes: identity lookup, rewarded ads, native share, the
// contacts viral module, leaderboard submission, and the purchase order
// handshake. Mock implements the same contracts without a host platform.
package bridge

import "context"

type ShareInput struct {
	Title       string
	Description string
	URL         string
	ImageURL    string
}

// PurchaseEvent is the platform's terminal settlement signal for one
// order. It fires exactly once per order.
type PurchaseEvent struct {
	Type    string
	OrderID string
}

const (
	// EventGrantResolvedOK is the real platform's terminal success.
	EventGrantResolvedOK = "grantResolvedOk"
	// EventMockSuccess is the sandbox/mock terminal success.
	EventMockSuccess = "mock_success"
)

// IsTerminalSuccess reports whether ev closes the purchase successfully.
func (ev PurchaseEvent) IsTerminalSuccess() bool {
	return ev.Type == EventGrantResolvedOK || ev.Type == EventMockSuccess
}

// PurchaseHandler is the handler object registered when an order is
// created. OnGrantRequest may be invoked at any later time, outside the
// lifetime of the call that created the order; its boolean return tells
// the platform whether to finalize or roll back the purchase.
type PurchaseHandler struct {
	OnGrantRequest func(orderID string) bool
	OnEvent        func(ev PurchaseEvent)
	OnError        func(err error)
}

// CancelFunc abandons a pending order before settlement.
type CancelFunc func()

type Bridge interface {
	// ResolveIdentity returns the stable opaque user identifier.
	ResolveIdentity(ctx context.Context) (string, error)

	LoadRewardedAd(ctx context.Context, adUnitID string) error
	// ShowRewardedAd displays the previously loaded ad and returns the
	// platform's ad event identifier on completion.
	ShowRewardedAd(ctx context.Context) (string, error)

	CreatePurchaseOrder(ctx context.Context, sku string, h PurchaseHandler) (CancelFunc, error)

	ShareLink(ctx context.Context, in ShareInput) error
	ContactsViral(ctx context.Context, moduleID string) error
	SubmitLeaderboardScore(ctx context.Context, score int64) error
	OpenLeaderboard(ctx context.Context) error
}
