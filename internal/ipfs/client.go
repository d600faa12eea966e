package ipfs

import (
	"bytes"
	"context"
	"fmt"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/dynasty-blog/dynasty/pkg/logger"
)

// Client wraps the IPFS HTTP API client
type Client struct {
	shell      *shell.Shell
	timeout    time.Duration
	pinContent bool
	retries    int
	logger     *logger.Logger
}

// NewClient creates a new IPFS client
func NewClient(apiEndpoint string, timeout time.Duration, pinContent bool, logger *logger.Logger) *Client {
	sh := shell.NewShell(apiEndpoint)
	sh.SetTimeout(timeout)

	return &Client{
		shell:      sh,
		timeout:    timeout,
		pinContent: pinContent,
		retries:    3,
		logger:     logger.WithComponent("ipfs-client"),
	}
}

// Add uploads data to IPFS and returns the CID
func (c *Client) Add(ctx context.Context, data []byte) (string, error) {
	cid, err := c.addWithRetry(ctx, data)
	if err != nil {
		c.logger.Error("Failed to add to IPFS", "error", err)
		return "", err
	}

	c.logger.Debug("Added content to IPFS", "cid", cid, "size", len(data))

	if c.pinContent {
		if err := c.Pin(ctx, cid); err != nil {
			// content is already stored; an unpinned object is still served
			c.logger.Warn("Failed to pin content", "cid", cid, "error", err)
		}
	}

	return cid, nil
}

// addWithRetry uploads data with linear backoff, giving up early when ctx ends
func (c *Client) addWithRetry(ctx context.Context, data []byte) (string, error) {
	var lastErr error

	for i := 0; i < c.retries; i++ {
		cid, err := c.shell.Add(bytes.NewReader(data))
		if err == nil {
			return cid, nil
		}

		lastErr = err
		c.logger.Warn("IPFS add attempt failed", "attempt", i+1, "error", err)

		if i < c.retries-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(i+1) * time.Second):
			}
		}
	}

	return "", fmt.Errorf("failed after %d retries: %w", c.retries, lastErr)
}

// Pin pins content to prevent garbage collection
func (c *Client) Pin(ctx context.Context, cid string) error {
	if err := c.shell.Pin(cid); err != nil {
		return fmt.Errorf("failed to pin %s: %w", cid, err)
	}

	c.logger.Debug("Pinned content", "cid", cid)
	return nil
}

// Unpin unpins content to allow garbage collection
func (c *Client) Unpin(ctx context.Context, cid string) error {
	if cid == "" {
		return nil
	}

	if err := c.shell.Unpin(cid); err != nil {
		c.logger.Warn("Failed to unpin content", "cid", cid, "error", err)
		return fmt.Errorf("failed to unpin %s: %w", cid, err)
	}

	c.logger.Debug("Unpinned content", "cid", cid)
	return nil
}

// IsHealthy checks if the IPFS daemon is reachable
func (c *Client) IsHealthy(ctx context.Context) bool {
	if _, err := c.shell.ID(); err != nil {
		c.logger.Warn("IPFS health check failed", "error", err)
		return false
	}
	return true
}
