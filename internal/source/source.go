// Package source implements the three price feeds behind domain.RateSource:
// the bank spot-rate HTTP client, the exchange ticker HTTP client, and the
// streaming quote client.
package source

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// userAgent is sent on every HTTP request; both upstream APIs reject requests
// without a browser-like agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// requestErr classifies a failed request into the domain timeout or transport
// sentinel, preserving the underlying message.
func requestErr(prefix string, err error) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return fmt.Errorf("%s: %v: %w", prefix, err, domain.ErrTimeout)
	}
	return fmt.Errorf("%s: %v: %w", prefix, err, domain.ErrTransport)
}
