package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/hamed0406/portwatch/internal/domain"
)

// DefaultTimeout bounds a single connect attempt.
const DefaultTimeout = 10 * time.Second

type TCPChecker struct {
	Dialer  *net.Dialer
	Timeout time.Duration
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TCPChecker{
		Dialer:  &net.Dialer{},
		Timeout: timeout,
	}
}

// Check makes one connect attempt to t and closes the connection right away.
// It never retries; every failure mode is reported as Success=false.
func (c *TCPChecker) Check(ctx context.Context, t domain.Target) CheckResult {
	return c.dial(ctx, t.Addr())
}

func (c *TCPChecker) dial(ctx context.Context, addr string) CheckResult {
	dctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	start := time.Now()
	conn, err := c.Dialer.DialContext(dctx, "tcp", addr)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return CheckResult{
			Success:   false,
			LatencyMS: latency,
			Message:   err.Error(),
			Canceled:  ctx.Err() != nil,
		}
	}
	_ = conn.Close()
	return CheckResult{Success: true, LatencyMS: latency, Message: "connected"}
}

// Probe reports whether host:port accepts a TCP connection within timeout.
func Probe(ctx context.Context, host string, port int, timeout time.Duration) bool {
	c := NewTCPChecker(timeout)
	return c.dial(ctx, net.JoinHostPort(host, strconv.Itoa(port))).Success
}
