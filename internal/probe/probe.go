package probe

import (
	"context"

	"github.com/hamed0406/portwatch/internal/domain"
)

// CheckResult is the unified result of a single probe.
//
// Fields:
//   - Success: the TCP handshake completed before the timeout.
//   - LatencyMS: time spent dialing, successful or not.
//   - Message: "connected" on success, otherwise the dial error text.
//   - Canceled: the caller's context ended before the dial finished. The
//     result says nothing about the target in that case.
type CheckResult struct {
	Success   bool
	LatencyMS float64
	Message   string
	Canceled  bool
}

// Checker performs a single check for a given target.
type Checker interface {
	Check(ctx context.Context, t domain.Target) CheckResult
}
