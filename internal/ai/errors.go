package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind is the closed classification of provider failures. Every kind except
// KindOther is considered transient and eligible for fallback.
type Kind int

const (
	KindOther Kind = iota
	KindRateLimited
	KindServerError
	KindTimeout
	KindOutputTruncated
	KindContentFiltered
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindTimeout:
		return "timeout"
	case KindOutputTruncated:
		return "output_truncated"
	case KindContentFiltered:
		return "content_filtered"
	default:
		return "other"
	}
}

// ProviderError is the uniform error shape produced by backend adapters,
// decoupling fallback decisions from any one vendor's error hierarchy.
type ProviderError struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("provider error (%s, status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("provider error (%s): %s", e.Kind, e.Message)
}

// Retryable reports whether err is a classified transient failure that
// warrants one attempt against the secondary backend.
func Retryable(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Kind {
	case KindRateLimited, KindServerError, KindTimeout, KindOutputTruncated, KindContentFiltered:
		return true
	default:
		return false
	}
}

func classifyStatus(status int) Kind {
	switch {
	case status == 429:
		return KindRateLimited
	case status == 408:
		return KindTimeout
	case status >= 500:
		return KindServerError
	default:
		return KindOther
	}
}

func classifyFinishReason(reason string) Kind {
	switch reason {
	case "length":
		return KindOutputTruncated
	case "content_filter":
		return KindContentFiltered
	default:
		return KindOther
	}
}

func classifyTransportErr(err error) Kind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindOther
}
