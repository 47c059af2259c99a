package models

import "time"

// SystemMetrics is a JSON snapshot of in-process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CasesCreated             uint64    `json:"casesCreated"`
	StatusTransitions        uint64    `json:"statusTransitions"`
	ExportsCompleted         uint64    `json:"exportsCompleted"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
