package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/mguerin/docpilot/internal/core/domain"
	"github.com/mguerin/docpilot/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "llm status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("llm %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("llm %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// ResilientClient guards the raw client with retries and a shared circuit
// breaker. It satisfies the same reasoning ports as Client.
type ResilientClient struct {
	client   *Client
	executor *resilience.Executor
}

func NewResilient(client *Client, policy resilience.Policy) *ResilientClient {
	return &ResilientClient{
		client:   client,
		executor: resilience.NewExecutor("llm", policy, classifyLLMError),
	}
}

func (r *ResilientClient) Complete(ctx context.Context, system, user string) (string, error) {
	var out string
	err := r.executor.Run(ctx, "completion", func(ctx context.Context) error {
		var callErr error
		out, callErr = r.client.Complete(ctx, system, user)
		return callErr
	})
	return out, wrapTemporaryIfNeeded("completion", err)
}

func (r *ResilientClient) CompleteVision(ctx context.Context, imagePath, prompt string) (string, error) {
	var out string
	err := r.executor.Run(ctx, "vision", func(ctx context.Context) error {
		var callErr error
		out, callErr = r.client.CompleteVision(ctx, imagePath, prompt)
		return callErr
	})
	return out, wrapTemporaryIfNeeded("vision", err)
}

func classifyLLMError(err error) resilience.Verdict {
	if err == nil {
		return resilience.Verdict{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Verdict{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.Verdict{Retryable: true, CountsAgainst: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.Verdict{Retryable: true, CountsAgainst: true}
		}
		return resilience.Verdict{}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Verdict{Retryable: true, CountsAgainst: true}
	}

	return resilience.Verdict{CountsAgainst: true}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyLLMError(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
