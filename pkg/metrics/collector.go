package metrics

import (
	"time"

	"github.com/breezechat/breeze/pkg/balancer"
)

// Collector periodically samples connection-pool state from the manager
type Collector struct {
	manager *balancer.Manager
	stopCh  chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(mgr *balancer.Manager) *Collector {
	return &Collector{
		manager: mgr,
		stopCh:  make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	for _, st := range c.manager.Stats() {
		ChannelConnections.WithLabelValues(st.Service).Set(float64(st.Connections))
		ChannelBusyLevel.WithLabelValues(st.Service).Set(float64(st.BusyTotal))
	}
}
