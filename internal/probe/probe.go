// Package probe checks that an LLM provider accepts the configured base URL
// and API key by listing its models.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/getclawkit/clawkit/internal/agentconfig"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 5 * time.Second

// Status is the outcome of a probe.
type Status string

// Probe outcomes.
const (
	StatusOK          Status = "ok"
	StatusAuthFailed  Status = "auth_failed"
	StatusNotFound    Status = "not_found"
	StatusAPIError    Status = "api_error"
	StatusUnreachable Status = "unreachable"
	StatusTimeout     Status = "timeout"
	StatusCanceled    Status = "canceled"
	StatusFailed      Status = "failed"
)

// Result is what a probe found. It is a value, probes never fail.
type Result struct {
	Seq     uint64        `json:"seq,omitempty"`
	Status  Status        `json:"status"`
	Code    int           `json:"code,omitempty"`
	Message string        `json:"message"`
	Latency time.Duration `json:"latency"`
}

// OK reports whether the provider answered successfully.
func (r Result) OK() bool { return r.Status == StatusOK }

// Warning reports whether the outcome is inconclusive rather than a failure.
// An unreachable API may still be reachable from the agent's own network.
func (r Result) Warning() bool { return r.Status == StatusUnreachable }

// Prober lists models on a provider.
type Prober struct {
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New returns a prober with the default timeout.
func New() *Prober {
	return &Prober{Timeout: DefaultTimeout}
}

// Test probes the provider described by llm. The provider picks the client:
// anthropic and ollama use their own APIs, everything else is treated as
// OpenAI compatible.
func (p *Prober) Test(ctx context.Context, llm agentconfig.LLM) Result {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rec := &recorder{next: http.DefaultTransport}
	hc := &http.Client{Transport: rec}
	if p.HTTPClient != nil {
		if p.HTTPClient.Transport != nil {
			rec.next = p.HTTPClient.Transport
		}
		hc.Jar = p.HTTPClient.Jar
	}

	base := strings.TrimRight(strings.TrimSpace(llm.BaseURL), "/")
	start := time.Now()
	var err error
	switch strings.ToLower(llm.Provider) {
	case "anthropic":
		err = listAnthropic(ctx, hc, base, llm.APIKey, timeout)
	case "ollama":
		err = listOllama(ctx, hc, base)
	default:
		err = listOpenAI(ctx, hc, base, llm.APIKey, timeout)
	}
	res := classify(ctx, err, int(rec.status.Load()))
	res.Latency = time.Since(start)
	return res
}

func listOpenAI(ctx context.Context, hc *http.Client, base, key string, timeout time.Duration) error {
	client := openai.NewClient(
		option.WithBaseURL(base),
		option.WithAPIKey(key),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	)
	if _, err := client.Models.List(ctx); err != nil {
		return fmt.Errorf("could not list models: %w", err)
	}
	return nil
}

func listAnthropic(ctx context.Context, hc *http.Client, base, key string, timeout time.Duration) error {
	client := anthropic.NewClient(
		aoption.WithBaseURL(strings.TrimSuffix(base, "/v1")),
		aoption.WithAPIKey(key),
		aoption.WithHTTPClient(hc),
		aoption.WithMaxRetries(0),
		aoption.WithRequestTimeout(timeout),
	)
	if _, err := client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return fmt.Errorf("could not list models: %w", err)
	}
	return nil
}

func listOllama(ctx context.Context, hc *http.Client, base string) error {
	u, err := url.Parse(strings.TrimSuffix(base, "/v1"))
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if _, err := api.NewClient(u, hc).List(ctx); err != nil {
		return fmt.Errorf("could not list models: %w", err)
	}
	return nil
}

// Messages shown for each outcome.
const (
	MsgOK          = "Connection Verified! API responded with 200 OK."
	MsgAuthFailed  = "Authentication Failed (401). Check API Key."
	MsgNotFound    = "Endpoint Not Found (404). Check Base URL."
	MsgUnreachable = "Could not reach the API from here. Verify the URL manually, the agent might still connect."
	MsgTimeout     = "Connection Failed: Timeout"
	MsgCanceled    = "Connection test canceled."
)

func classify(ctx context.Context, err error, code int) Result {
	if err == nil {
		return Result{Status: StatusOK, Code: http.StatusOK, Message: MsgOK}
	}

	if c := statusCode(err); c != 0 {
		code = c
	}
	// Any 2xx counts, even when the body does not decode.
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return Result{Status: StatusOK, Code: code, Message: MsgOK}
	}
	if code >= http.StatusBadRequest {
		switch code {
		case http.StatusUnauthorized:
			return Result{Status: StatusAuthFailed, Code: code, Message: MsgAuthFailed}
		case http.StatusNotFound:
			return Result{Status: StatusNotFound, Code: code, Message: MsgNotFound}
		default:
			return Result{
				Status:  StatusAPIError,
				Code:    code,
				Message: fmt.Sprintf("API Error: %d %s", code, http.StatusText(code)),
			}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Result{Status: StatusTimeout, Message: MsgTimeout}
	}
	if errors.Is(err, context.Canceled) {
		return Result{Status: StatusCanceled, Message: MsgCanceled}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return Result{Status: StatusTimeout, Message: MsgTimeout}
	}
	if isNetwork(err) {
		return Result{Status: StatusUnreachable, Message: MsgUnreachable}
	}
	return Result{Status: StatusFailed, Message: "Connection Failed: " + err.Error()}
}

func statusCode(err error) int {
	var oerr *openai.Error
	if errors.As(err, &oerr) {
		return oerr.StatusCode
	}
	var aerr *anthropic.Error
	if errors.As(err, &aerr) {
		return aerr.StatusCode
	}
	var serr api.StatusError
	if errors.As(err, &serr) {
		return serr.StatusCode
	}
	return 0
}

func isNetwork(err error) bool {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.As(err, &dnsErr) ||
		errors.As(err, &opErr)
}

// recorder remembers the status of the last response, so non-2xx answers
// are classified the same whatever error type the client library returns.
type recorder struct {
	next   http.RoundTripper
	status atomic.Int32
}

func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.next.RoundTrip(req)
	if resp != nil {
		r.status.Store(int32(resp.StatusCode)) //nolint:gosec
	}
	return resp, err //nolint:wrapcheck
}
