package types

// ModelsResponse wraps the catalog listing returned by GET /models.
type ModelsResponse struct {
	// Every model x scale combination the service knows about.
	Models []ModelEntry `json:"models"`
	// Accepted output formats.
	// example: ["png","jpeg","bmp","tiff"]
	Formats []string `json:"formats" example:"png,jpeg,bmp,tiff"`
	// Exclusive upper bound of the tile setting.
	// example: 9
	MaxTile int `json:"max_tile" example:"9"`
}

// ErrorResponse is the JSON error payload.
type ErrorResponse struct {
	// Reason string.
	// example: no such model
	Status string `json:"status" example:"no such model"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// InstanceStatus summarizes a pooled instance for /status.
type InstanceStatus struct {
	// Configuration key of the instance.
	// example: no-denoise/2x/t2
	Key string `json:"key" example:"no-denoise/2x/t2"`
	// example: no-denoise
	Model string `json:"model" example:"no-denoise"`
	// example: 2
	Scale int `json:"scale" example:"2"`
	// example: 2
	Tile int `json:"tile" example:"2"`
	// Lifecycle state of the instance.
	// example: ready
	State string `json:"state" example:"ready"`
	// Last time this instance served a request (unix seconds).
	// example: 1700000000
	LastUsed int64 `json:"last_used_unix" example:"1700000000"`
	// Whether a computation is currently running on the instance.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Number of computations served.
	// example: 42
	Served uint64 `json:"served" example:"42"`
}

// CacheStatus describes the result cache.
type CacheStatus struct {
	// example: fs
	Backend string `json:"backend" example:"fs"`
	// example: 128
	Entries int `json:"entries" example:"128"`
	// Configured bound; 0 means unbounded.
	// example: 0
	MaxEntries int `json:"max_entries" example:"0"`
	// Error reading the entry count, if any.
	Error string `json:"error,omitempty"`
}

// AdmissionStatus describes compute admission.
type AdmissionStatus struct {
	// example: 8
	MaxWorkers int `json:"max_workers" example:"8"`
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// example: 30000
	MaxWaitMS int64 `json:"max_wait_ms" example:"30000"`
	// Computations currently running.
	// example: 1
	Running int `json:"running" example:"1"`
	// Requests waiting for a worker slot.
	// example: 0
	Queued int `json:"queued" example:"0"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Pooled instances.
	Instances []InstanceStatus `json:"instances"`
	Cache     CacheStatus      `json:"cache"`
	Admission AdmissionStatus  `json:"admission"`
	// Name of the upscaler backend.
	// example: resample
	Backend string `json:"backend" example:"resample"`
	// Last construction error observed, if any.
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Total instance constructions.
	// example: 3
	ConstructionsTotal uint64 `json:"constructions_total" example:"3"`
	// Host memory, omitted when unavailable.
	Host *HostStatus `json:"host,omitempty"`
}

// HostStatus reports host memory.
type HostStatus struct {
	// example: 17179869184
	MemTotalBytes uint64 `json:"mem_total_bytes" example:"17179869184"`
	// example: 8589934592
	MemAvailableBytes uint64 `json:"mem_available_bytes" example:"8589934592"`
	// example: 50.0
	MemUsedPercent float64 `json:"mem_used_percent" example:"50.0"`
}
