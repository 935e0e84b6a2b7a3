package metrics

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Health status values
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the body served by HealthHandler
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
	Failing    []string          `json:"failing,omitempty"`
	Version    string            `json:"version,omitempty"`
	Uptime     string            `json:"uptime,omitempty"`
}

// Component is the last state reported by one part of the client, such as
// "session" or "channel.playlist"
type Component struct {
	Healthy bool
	Message string
	Updated time.Time
}

type registry struct {
	mu         sync.RWMutex
	components map[string]Component
	started    time.Time
	version    string
}

var health = newRegistry()

func newRegistry() *registry {
	return &registry{
		components: make(map[string]Component),
		started:    time.Now(),
	}
}

// SetVersion sets the version reported by the health endpoint
func SetVersion(version string) {
	health.mu.Lock()
	health.version = version
	health.mu.Unlock()
}

// UpdateComponent records the state of a component, registering it on
// first use
func UpdateComponent(name string, healthy bool, message string) {
	health.mu.Lock()
	health.components[name] = Component{Healthy: healthy, Message: message, Updated: time.Now()}
	health.mu.Unlock()
}

// UnregisterComponent forgets a component that was shut down on purpose
func UnregisterComponent(name string) {
	health.mu.Lock()
	delete(health.components, name)
	health.mu.Unlock()
}

// LookupComponent returns the recorded state of a component
func LookupComponent(name string) (Component, bool) {
	health.mu.RLock()
	defer health.mu.RUnlock()
	comp, ok := health.components[name]
	return comp, ok
}

// GetHealth reports unhealthy as soon as one registered component is
func GetHealth() HealthStatus {
	health.mu.RLock()
	defer health.mu.RUnlock()

	out := HealthStatus{
		Status:     StatusHealthy,
		Timestamp:  time.Now(),
		Components: make(map[string]string, len(health.components)),
		Version:    health.version,
		Uptime:     time.Since(health.started).String(),
	}
	for name, comp := range health.components {
		if comp.Healthy {
			out.Components[name] = StatusHealthy
			continue
		}
		out.Status = StatusUnhealthy
		out.Components[name] = StatusUnhealthy + ": " + comp.Message
		out.Failing = append(out.Failing, name)
	}
	sort.Strings(out.Failing)
	return out
}

// HealthHandler serves GetHealth, 503 when any component is unhealthy
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := GetHealth()
		code := http.StatusOK
		if status.Status != StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		writeHealth(w, code, status)
	}
}

// LivenessHandler answers 200 while the process runs
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health.mu.RLock()
		uptime := time.Since(health.started).String()
		health.mu.RUnlock()

		writeHealth(w, http.StatusOK, map[string]string{"status": "alive", "uptime": uptime})
	}
}

func writeHealth(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
