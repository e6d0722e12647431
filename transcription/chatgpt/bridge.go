package chatgpt

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/voicekit/logger"
	"github.com/kbukum/voicekit/oauth"
	"github.com/kbukum/voicekit/transcription"
)

// BridgeProviderName is the registered name for the browser-bridge variant.
const BridgeProviderName = "chatgpt-bridge"

const (
	// warmupURL is the provider origin the hidden view must be on before
	// the injected fetch can succeed.
	warmupURL  = "https://chatgpt.com/"
	originHost = "chatgpt.com"

	// settleDelay gives the origin's client-side session/challenge
	// bootstrap time to complete after navigation.
	settleDelay = 1200 * time.Millisecond

	// bridgeTimeoutFloor keeps slow challenge/navigation delays from
	// spuriously failing calls configured with short request timeouts.
	bridgeTimeoutFloor = 180 * time.Second
)

// View is a hidden browser surface holding an authenticated session.
type View interface {
	// CurrentURL returns the view's current location.
	CurrentURL() (string, error)
	// Navigate points the view at the given URL.
	Navigate(url string) error
	// Hide hides the view without destroying its session state.
	Hide() error
	// Eval executes a script inside the view's credentialed context.
	Eval(script string) error
}

// ViewManager supplies the hidden view, creating it on first use.
type ViewManager interface {
	EnsureView(ctx context.Context) (View, error)
}

// BridgeProvider implements transcription.Provider by executing the
// upload from inside an authenticated browser view and recovering the
// outcome through a per-call loopback callback listener.
type BridgeProvider struct {
	cfg   Config
	auth  *oauth.Manager
	views ViewManager
	log   *logger.Logger

	// requestSlot serializes bridged calls: the hidden view and its
	// navigation state tolerate one script at a time. Callers queue.
	requestSlot chan struct{}

	// settle is the post-navigation wait; injectable for tests.
	settle time.Duration
}

// NewBridgeProvider creates the browser-bridge ChatGPT provider.
func NewBridgeProvider(cfg Config, auth *oauth.Manager, views ViewManager) *BridgeProvider {
	cfg.applyDefaults()
	return &BridgeProvider{
		cfg:         cfg,
		auth:        auth,
		views:       views,
		log:         logger.WithComponent("chatgpt-bridge"),
		requestSlot: make(chan struct{}, 1),
		settle:      settleDelay,
	}
}

// Name returns the provider name.
func (p *BridgeProvider) Name() string { return BridgeProviderName }

// IsAvailable reports whether a ChatGPT login is present.
func (p *BridgeProvider) IsAvailable(ctx context.Context) bool {
	return p.auth.LoggedIn()
}

// Transcribe performs one bridged transcription call.
func (p *BridgeProvider) Transcribe(ctx context.Context, audio []byte, opts Options) (*transcription.Result, error) {
	select {
	case p.requestSlot <- struct{}{}:
		defer func() { <-p.requestSlot }()
	case <-ctx.Done():
		return nil, transcription.NetworkError("Cancelled while waiting for the bridge request slot")
	}

	auth, err := p.auth.AuthContext(ctx)
	if err != nil {
		return nil, err
	}

	view, err := p.views.EnsureView(ctx)
	if err != nil {
		return nil, transcription.ProviderError(fmt.Sprintf("Failed to obtain hidden browser view: %v", err))
	}
	if err := p.warmup(ctx, view); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	request := &bridgeRequest{
		RequestID:   requestID,
		Endpoint:    p.cfg.Endpoint,
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		AccessToken: auth.AccessToken,
		AccountID:   auth.AccountID,
	}

	p.log.Info("starting bridged transcription request",
		logger.Fields(logger.FieldRequestID, requestID, "endpoint", p.cfg.Endpoint))

	callback, err := p.invokeBridge(ctx, view, request)
	if err != nil {
		return nil, err
	}
	if !callback.OK {
		return nil, mapBridgeError(callback)
	}

	return decodeTranscript([]byte(callback.Body), opts)
}

// warmup ensures the view is on the provider origin and settled. The view
// is re-hidden after settling regardless of the navigation outcome.
func (p *BridgeProvider) warmup(ctx context.Context, view View) error {
	defer func() {
		if err := view.Hide(); err != nil {
			p.log.Warn("failed to keep browser view hidden", logger.ErrorFields("hide", err))
		}
	}()

	current, err := view.CurrentURL()
	if err != nil {
		return transcription.ProviderError(fmt.Sprintf("Failed to inspect browser view URL: %v", err))
	}

	if !onProviderOrigin(current) {
		if err := view.Navigate(warmupURL); err != nil {
			return transcription.ProviderError(fmt.Sprintf("Failed to navigate browser view for warmup: %v", err))
		}
	}

	select {
	case <-time.After(p.settle):
	case <-ctx.Done():
		return transcription.NetworkError("Cancelled while waiting for browser view to settle")
	}

	return nil
}

// invokeBridge runs the hardest stretch of the protocol in its canonical
// order: build request, bind listener, finalize callback URL, inject
// script, then wait for the correlated callback under one timeout.
func (p *BridgeProvider) invokeBridge(ctx context.Context, view View, request *bridgeRequest) (*bridgeCallback, error) {
	listener, err := newCallbackListener()
	if err != nil {
		return nil, err
	}

	request.CallbackURL = listener.URL(request.RequestID)

	script, err := buildBridgeScript(request)
	if err != nil {
		listener.Close()
		return nil, err
	}

	if err := view.Eval(script); err != nil {
		listener.Close()
		return nil, transcription.ProviderError(fmt.Sprintf("Failed to execute bridge script: %v", err))
	}

	timeout := p.cfg.RequestTimeout
	if timeout < bridgeTimeoutFloor {
		timeout = bridgeTimeoutFloor
	}

	return listener.Await(ctx, timeout, request.RequestID)
}

// mapBridgeError maps a non-ok bridge outcome to the error taxonomy. A
// transport-level error string from the script always means Network; HTTP
// outcomes follow the shared status mapping.
func mapBridgeError(callback *bridgeCallback) *transcription.Error {
	if message := strings.TrimSpace(callback.Error); message != "" {
		return transcription.NetworkError(message)
	}

	message := transcription.ErrorMessageFromBody(callback.Body)
	if message == "" {
		if callback.Status != 0 {
			message = transcription.StatusMessage("ChatGPT", callback.Status)
		} else {
			message = "ChatGPT request failed in browser bridge"
		}
	}

	if callback.Status == 0 {
		return transcription.ProviderError(message)
	}
	return transcription.MapHTTPStatus(callback.Status, message)
}

// onProviderOrigin reports whether rawURL points at the provider origin.
func onProviderOrigin(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	return host == originHost || strings.HasSuffix(host, "."+originHost)
}

var _ transcription.Provider = (*BridgeProvider)(nil)
