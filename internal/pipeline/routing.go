package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agentforge/pkg/logging"
)

// emaAlpha weights the newest processing-time sample in the rolling
// average.
const emaAlpha = 0.3

// AgentStatus is the availability state of one in-process agent.
type AgentStatus string

const (
	AgentAvailable AgentStatus = "available"
	AgentOffline   AgentStatus = "offline"
)

// AgentMetrics tracks one agent type's load and performance. There is one
// instance per agent type, so routing degenerates to an admission check
// rather than a ranking.
type AgentMetrics struct {
	Type              AgentType   `json:"type"`
	Status            AgentStatus `json:"status"`
	CurrentLoad       int         `json:"currentLoad"`
	MaxLoad           int         `json:"maxLoad"`
	AvgProcessingTime float64     `json:"avgProcessingTime"`
	SuccessCount      int         `json:"successCount"`
	FailureCount      int         `json:"failureCount"`
}

// SuccessRate returns the fraction of completed tasks that succeeded.
func (m AgentMetrics) SuccessRate() float64 {
	total := m.SuccessCount + m.FailureCount
	if total < 1 {
		total = 1
	}
	return float64(m.SuccessCount) / float64(total)
}

// Router is the intelligent routing agent: it admits tasks to the
// specialized agents, tracks per-agent load and a rolling processing-time
// average, and rejects work for agent types with no available capacity.
type Router struct {
	mu      sync.Mutex
	agents  map[AgentType]Agent
	metrics map[AgentType]*AgentMetrics
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		agents:  make(map[AgentType]Agent),
		metrics: make(map[AgentType]*AgentMetrics),
	}
}

// RegisterAgent adds an agent with the given admission cap. Registering the
// same type again replaces the previous agent and resets its metrics.
func (r *Router) RegisterAgent(agent Agent, maxLoad int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.agents[agent.Type()] = agent
	r.metrics[agent.Type()] = &AgentMetrics{
		Type:    agent.Type(),
		Status:  AgentAvailable,
		MaxLoad: maxLoad,
	}
}

// Dispatch admits the task to its agent type, runs it, and records the
// outcome. A task whose agent type has no available capacity fails
// immediately; there is no queueing beyond the load cap.
func (r *Router) Dispatch(ctx context.Context, task AgentTask) (AgentResult, error) {
	r.mu.Lock()
	agent, ok := r.agents[task.Type]
	m := r.metrics[task.Type]
	if !ok || m == nil {
		r.mu.Unlock()
		return AgentResult{}, fmt.Errorf("no available agent for task type %s", task.Type)
	}
	if m.Status != AgentAvailable || m.CurrentLoad >= m.MaxLoad {
		r.mu.Unlock()
		return AgentResult{}, fmt.Errorf("no available agent for task type %s", task.Type)
	}
	m.CurrentLoad++
	r.mu.Unlock()

	started := time.Now()
	result, err := agent.Execute(ctx, task)
	elapsed := time.Since(started).Seconds()

	r.mu.Lock()
	m.CurrentLoad--
	if m.AvgProcessingTime == 0 {
		m.AvgProcessingTime = elapsed
	} else {
		m.AvgProcessingTime = emaAlpha*elapsed + (1-emaAlpha)*m.AvgProcessingTime
	}
	if err != nil {
		m.FailureCount++
	} else {
		m.SuccessCount++
	}
	r.mu.Unlock()

	if err != nil {
		logging.Warn("Router", "Agent %s failed task %s: %v", task.Type, task.ID, err)
		return AgentResult{}, err
	}
	logging.Debug("Router", "Agent %s completed task %s in %.2fs", task.Type, task.ID, elapsed)
	return result, nil
}

// SetStatus forces an agent type's availability, used to take an agent
// offline without unregistering it.
func (r *Router) SetStatus(agentType AgentType, status AgentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.metrics[agentType]; ok {
		m.Status = status
	}
}

// Metrics returns a copy of every agent type's metrics.
func (r *Router) Metrics() []AgentMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]AgentMetrics, 0, len(r.metrics))
	for _, m := range r.metrics {
		out = append(out, *m)
	}
	return out
}
