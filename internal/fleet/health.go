package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/fjacquet/ncm_client/pkg/ncm"
)

// healthCheckTimeout bounds TestConnectivity when ctx carries no deadline.
const healthCheckTimeout = 5 * time.Second

// TestConnectivity lists a single router to check that NCM is reachable
// and the v2 keys are accepted. Nothing on the server is modified.
func (c *Collector) TestConnectivity(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
	}

	v2, err := c.client().V2()
	if err == nil {
		_, err = v2.GetRouters(ctx, ncm.Params{"limit": 1, "fields": "id"})
	}
	if err != nil {
		return fmt.Errorf("NCM connectivity test failed: %w", err)
	}
	return nil
}

// IsHealthy reports whether the most recent fleet listing succeeded. No
// request is made.
func (c *Collector) IsHealthy() bool {
	c.scrapeMu.RLock()
	defer c.scrapeMu.RUnlock()
	return c.lastScrapeOK
}
