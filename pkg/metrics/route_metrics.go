package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxSamples is how many latencies are kept per route.
const maxSamples = 100

// RouteMetrics tracks request counts and latencies per route.
type RouteMetrics struct {
	mu                sync.RWMutex
	routeLatencies    map[string][]time.Duration
	routeSuccessCount map[string]int64
	routeErrorCount   map[string]int64
	totalRequests     int64
	totalErrors       int64
	startedAt         time.Time
	lastUpdated       time.Time
}

// NewRouteMetrics creates a new metrics collector
func NewRouteMetrics() *RouteMetrics {
	now := time.Now()
	return &RouteMetrics{
		routeLatencies:    make(map[string][]time.Duration),
		routeSuccessCount: make(map[string]int64),
		routeErrorCount:   make(map[string]int64),
		startedAt:         now,
		lastUpdated:       now,
	}
}

// RecordRequest records one handled request for route. Requests answered
// with a status of 500 or above count as errors.
func (rm *RouteMetrics) RecordRequest(route string, status int, duration time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	samples := append(rm.routeLatencies[route], duration)
	if len(samples) > maxSamples {
		samples = samples[1:]
	}
	rm.routeLatencies[route] = samples

	rm.totalRequests++
	if status >= 500 {
		rm.routeErrorCount[route]++
		rm.totalErrors++
	} else {
		rm.routeSuccessCount[route]++
	}

	rm.lastUpdated = time.Now()
}

// GetRouteStats returns statistics for a specific route
func (rm *RouteMetrics) GetRouteStats(route string) RouteStats {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.routeStats(route)
}

func (rm *RouteMetrics) routeStats(route string) RouteStats {
	success := rm.routeSuccessCount[route]
	failed := rm.routeErrorCount[route]
	stats := RouteStats{
		Route:        route,
		SuccessCount: success,
		ErrorCount:   failed,
		TotalCount:   success + failed,
	}

	times := rm.routeLatencies[route]
	if len(times) == 0 {
		return stats
	}

	sorted := make([]time.Duration, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	stats.AverageTime = average(sorted)
	stats.MinTime = sorted[0]
	stats.MaxTime = sorted[len(sorted)-1]
	stats.MedianTime = median(sorted)
	stats.P95Time = percentile(sorted, 0.95)
	stats.SuccessRate = rate(success, failed)
	return stats
}

// GetOverallStats returns statistics for every route seen so far.
func (rm *RouteMetrics) GetOverallStats() OverallStats {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	routes := make(map[string]RouteStats, len(rm.routeLatencies))
	for route := range rm.routeLatencies {
		routes[route] = rm.routeStats(route)
	}

	return OverallStats{
		TotalRequests:      rm.totalRequests,
		TotalErrors:        rm.totalErrors,
		OverallSuccessRate: rate(rm.totalRequests-rm.totalErrors, rm.totalErrors),
		Uptime:             time.Since(rm.startedAt).Round(time.Second).String(),
		Routes:             routes,
		LastUpdated:        rm.lastUpdated,
	}
}

// Reset clears all metrics
func (rm *RouteMetrics) Reset() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.routeLatencies = make(map[string][]time.Duration)
	rm.routeSuccessCount = make(map[string]int64)
	rm.routeErrorCount = make(map[string]int64)
	rm.totalRequests = 0
	rm.totalErrors = 0
	rm.lastUpdated = time.Now()
}

// Helper calculation functions; inputs are sorted and non-empty.
func average(times []time.Duration) time.Duration {
	var total time.Duration
	for _, t := range times {
		total += t
	}
	return total / time.Duration(len(times))
}

func median(sorted []time.Duration) time.Duration {
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	index := int(float64(len(sorted)-1) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func rate(success, failed int64) float64 {
	if success+failed == 0 {
		return 0.0
	}
	return float64(success) / float64(success+failed) * 100.0
}

// RouteStats contains statistics for a single route
type RouteStats struct {
	Route        string        `json:"route"`
	SuccessCount int64         `json:"success_count"`
	ErrorCount   int64         `json:"error_count"`
	TotalCount   int64         `json:"total_count"`
	AverageTime  time.Duration `json:"average_time"`
	MinTime      time.Duration `json:"min_time"`
	MaxTime      time.Duration `json:"max_time"`
	MedianTime   time.Duration `json:"median_time"`
	P95Time      time.Duration `json:"p95_time"`
	SuccessRate  float64       `json:"success_rate"`
}

// OverallStats contains service-wide statistics
type OverallStats struct {
	TotalRequests      int64                 `json:"total_requests"`
	TotalErrors        int64                 `json:"total_errors"`
	OverallSuccessRate float64               `json:"overall_success_rate"`
	Uptime             string                `json:"uptime"`
	Routes             map[string]RouteStats `json:"routes"`
	LastUpdated        time.Time             `json:"last_updated"`
}
