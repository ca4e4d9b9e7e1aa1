// Package paywall bridges the host app's method channel to the monetization SDK.
package paywall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// DefaultChannel is the method channel name the host app listens on.
const DefaultChannel = "com.fitbod.superwall"

// Channel methods.
const (
	MethodShowPaywall  = "showPaywall"
	MethodIsSubscribed = "isSubscribed"
	// MethodSetSubscribed updates the cached subscription flag after a
	// purchase, restore or expiry.
	MethodSetSubscribed = "setSubscribed"
)

// DefaultEvent is registered when showPaywall carries no string argument.
const DefaultEvent = "default"

// ErrNotImplemented is returned for methods the channel does not handle.
var ErrNotImplemented = errors.New("method not implemented")

// ErrInvalidParams is returned when a method's arguments cannot be decoded.
var ErrInvalidParams = errors.New("invalid params")

// SDK is the monetization SDK surface the bridge drives.
type SDK interface {
	Configure(apiKey string) error
	Register(ctx context.Context, event string) error
	IsUserSubscribed(ctx context.Context) (bool, error)
}

// SubscriptionSetter is implemented by SDKs whose cached subscription flag
// can be written from outside the SDK. LocalSDK implements it.
type SubscriptionSetter interface {
	SetSubscribed(ctx context.Context, subscribed bool) error
}

// MethodCall is one invocation arriving over the channel.
type MethodCall struct {
	Method    string
	Arguments json.RawMessage
}

// URLHandler is the default handler URL-open events fall through to.
type URLHandler func(u *url.URL) bool

// Bridge dispatches channel calls to an SDK.
type Bridge struct {
	sdk      SDK
	channel  string
	fallback URLHandler
	log      *slog.Logger
}

// NewBridge creates a bridge serving channel. An empty channel uses DefaultChannel.
func NewBridge(sdk SDK, channel string, fallback URLHandler, log *slog.Logger) *Bridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Bridge{sdk: sdk, channel: channel, fallback: fallback, log: log}
}

// Channel returns the channel name.
func (b *Bridge) Channel() string {
	return b.channel
}

// Configure registers the SDK with apiKey. Called once at launch.
func (b *Bridge) Configure(apiKey string) error {
	return b.sdk.Configure(apiKey)
}

// Handle runs one method call. showPaywall always reports true once the
// placement has been issued; a registration failure is only logged.
func (b *Bridge) Handle(ctx context.Context, call MethodCall) (any, error) {
	switch call.Method {
	case MethodShowPaywall:
		event := eventArgument(call.Arguments)
		if err := b.sdk.Register(ctx, event); err != nil {
			b.log.Error("registering paywall event", "event", event, "error", err)
		}
		return true, nil
	case MethodIsSubscribed:
		return b.sdk.IsUserSubscribed(ctx)
	case MethodSetSubscribed:
		setter, ok := b.sdk.(SubscriptionSetter)
		if !ok {
			return nil, ErrNotImplemented
		}
		var subscribed *bool
		if err := json.Unmarshal(call.Arguments, &subscribed); err != nil || subscribed == nil {
			return nil, fmt.Errorf("%w: setSubscribed takes a boolean", ErrInvalidParams)
		}
		if err := setter.SetSubscribed(ctx, *subscribed); err != nil {
			return nil, err
		}
		b.log.Info("subscription updated", "subscribed", *subscribed)
		return *subscribed, nil
	}
	return nil, ErrNotImplemented
}

// OpenURL hands u unmodified to the fallback handler.
func (b *Bridge) OpenURL(u *url.URL) bool {
	if b.fallback == nil {
		return false
	}
	return b.fallback(u)
}

func eventArgument(raw json.RawMessage) string {
	var s *string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil || s == nil {
		return DefaultEvent
	}
	return *s
}
