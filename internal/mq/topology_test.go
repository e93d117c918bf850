package mq

import (
	"strings"
	"testing"

	"github.com/shaiso/Coldcluster/internal/domain"
)

func TestTopology_BindingsDeclared(t *testing.T) {
	exchanges := make(map[Exchange]bool)
	for _, ex := range topology.exchanges {
		exchanges[ex.name] = true
	}
	queues := make(map[Queue]bool)
	for _, q := range topology.queues {
		queues[q.name] = true
	}

	for _, b := range topology.bindings {
		if !exchanges[b.exchange] {
			t.Errorf("binding %s uses undeclared exchange %s", b.key, b.exchange)
		}
		if !queues[b.queue] {
			t.Errorf("binding %s uses undeclared queue %s", b.key, b.queue)
		}
	}
}

func TestTopologyInfo(t *testing.T) {
	info := TopologyInfo()

	for _, want := range []string{
		"coldcluster.events (topic)",
		"-> archive.events [search.#, assembly.#]",
		"coldcluster.dlq (direct)",
		"-> dlq.archive [archive]",
	} {
		if !strings.Contains(info, want) {
			t.Errorf("TopologyInfo() missing %q:\n%s", want, info)
		}
	}
}

func TestRoutingKeyFor_RoutesIntoArchiveQueue(t *testing.T) {
	// Каждое событие координатора должно попадать в очередь архиватора
	for _, et := range []domain.EventType{
		domain.EventSearchStarted,
		domain.EventStatusChanged,
		domain.EventSnapshot,
		domain.EventAssemblyCompleted,
	} {
		key := string(RoutingKeyFor(et))
		prefix := strings.SplitN(key, ".", 2)[0]
		if prefix != "search" && prefix != "assembly" {
			t.Errorf("event %s routed by %q, not bound to archive.events", et, key)
		}
	}
}
