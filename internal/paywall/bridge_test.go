package paywall

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSDK struct {
	apiKey      string
	events      []string
	registerErr error
	subscribed  bool
	subErr      error
}

func (f *fakeSDK) Configure(apiKey string) error {
	f.apiKey = apiKey
	return nil
}

func (f *fakeSDK) Register(_ context.Context, event string) error {
	f.events = append(f.events, event)
	return f.registerErr
}

func (f *fakeSDK) IsUserSubscribed(context.Context) (bool, error) {
	return f.subscribed, f.subErr
}

// TestConfigure verifies the key is handed to the SDK unchanged.
func TestConfigure(t *testing.T) {
	sdk := &fakeSDK{}
	b := NewBridge(sdk, "", nil, testLogger())
	if err := b.Configure("pk_test"); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	if sdk.apiKey != "pk_test" {
		t.Errorf("api key = %q", sdk.apiKey)
	}
	if b.Channel() != DefaultChannel {
		t.Errorf("channel = %q, want %q", b.Channel(), DefaultChannel)
	}
}

// TestShowPaywallEvent verifies the argument coercion for showPaywall.
func TestShowPaywallEvent(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{"string", `"onboarding"`, "onboarding"},
		{"missing", ``, DefaultEvent},
		{"number", `42`, DefaultEvent},
		{"object", `{"event":"x"}`, DefaultEvent},
		{"null", `null`, DefaultEvent},
		{"empty string", `""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sdk := &fakeSDK{}
			b := NewBridge(sdk, "", nil, testLogger())
			got, err := b.Handle(context.Background(), MethodCall{Method: MethodShowPaywall, Arguments: json.RawMessage(tt.args)})
			if err != nil {
				t.Fatalf("Handle() error: %v", err)
			}
			if got != true {
				t.Errorf("result = %v, want true", got)
			}
			if len(sdk.events) != 1 || sdk.events[0] != tt.want {
				t.Errorf("events = %q, want [%q]", sdk.events, tt.want)
			}
		})
	}
}

// TestShowPaywallRegisterFailure verifies showPaywall still reports true
// when the SDK fails to register.
func TestShowPaywallRegisterFailure(t *testing.T) {
	b := NewBridge(&fakeSDK{registerErr: errors.New("offline")}, "", nil, testLogger())
	got, err := b.Handle(context.Background(), MethodCall{Method: MethodShowPaywall})
	if err != nil || got != true {
		t.Errorf("Handle() = %v, %v; want true, nil", got, err)
	}
}

// TestIsSubscribed verifies the SDK's answer and error are passed through.
func TestIsSubscribed(t *testing.T) {
	b := NewBridge(&fakeSDK{subscribed: true}, "", nil, testLogger())
	got, err := b.Handle(context.Background(), MethodCall{Method: MethodIsSubscribed})
	if err != nil || got != true {
		t.Errorf("Handle() = %v, %v; want true, nil", got, err)
	}

	b = NewBridge(&fakeSDK{subErr: errors.New("store unreachable")}, "", nil, testLogger())
	if _, err := b.Handle(context.Background(), MethodCall{Method: MethodIsSubscribed}); err == nil {
		t.Error("expected SDK error")
	}
}

// settableSDK is a fakeSDK whose subscription flag can be written.
type settableSDK struct {
	fakeSDK
	setErr error
}

func (f *settableSDK) SetSubscribed(_ context.Context, subscribed bool) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.subscribed = subscribed
	return nil
}

// TestSetSubscribed verifies the flag is written through and read back by
// isSubscribed, and that bad arguments are rejected.
func TestSetSubscribed(t *testing.T) {
	sdk := &settableSDK{}
	b := NewBridge(sdk, "", nil, testLogger())
	ctx := context.Background()

	got, err := b.Handle(ctx, MethodCall{Method: MethodSetSubscribed, Arguments: json.RawMessage(`true`)})
	if err != nil || got != true {
		t.Fatalf("Handle(setSubscribed) = %v, %v; want true, nil", got, err)
	}
	if sub, err := b.Handle(ctx, MethodCall{Method: MethodIsSubscribed}); err != nil || sub != true {
		t.Errorf("isSubscribed after set = %v, %v", sub, err)
	}

	for _, args := range []string{``, `null`, `"yes"`, `1`} {
		if _, err := b.Handle(ctx, MethodCall{Method: MethodSetSubscribed, Arguments: json.RawMessage(args)}); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("args %q: error = %v, want ErrInvalidParams", args, err)
		}
	}
	if !sdk.subscribed {
		t.Error("rejected calls changed the flag")
	}

	sdk.setErr = errors.New("disk full")
	if _, err := b.Handle(ctx, MethodCall{Method: MethodSetSubscribed, Arguments: json.RawMessage(`false`)}); err == nil {
		t.Error("expected SDK error")
	}
}

// TestSetSubscribedUnsupported verifies SDKs without a writable flag report
// the method as not implemented.
func TestSetSubscribedUnsupported(t *testing.T) {
	b := NewBridge(&fakeSDK{}, "", nil, testLogger())
	_, err := b.Handle(context.Background(), MethodCall{Method: MethodSetSubscribed, Arguments: json.RawMessage(`true`)})
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("error = %v, want ErrNotImplemented", err)
	}
}

// TestUnknownMethod verifies unknown methods resolve as not implemented.
func TestUnknownMethod(t *testing.T) {
	b := NewBridge(&fakeSDK{}, "", nil, testLogger())
	if _, err := b.Handle(context.Background(), MethodCall{Method: "restorePurchases"}); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("error = %v, want ErrNotImplemented", err)
	}
}

// TestOpenURL verifies URLs reach the fallback unmodified.
func TestOpenURL(t *testing.T) {
	var seen *url.URL
	b := NewBridge(&fakeSDK{}, "", func(u *url.URL) bool {
		seen = u
		return true
	}, testLogger())

	u, _ := url.Parse("io.supabase.fitcoach://login-callback?code=abc#frag")
	if !b.OpenURL(u) {
		t.Error("OpenURL() = false, want fallback result")
	}
	if seen != u {
		t.Errorf("fallback got %v, want the same URL", seen)
	}

	if NewBridge(&fakeSDK{}, "", nil, testLogger()).OpenURL(u) {
		t.Error("OpenURL() without fallback = true")
	}
}
