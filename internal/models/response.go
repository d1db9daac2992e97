package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// StatusResponse represents worker status
type StatusResponse struct {
	Status             string   `json:"status"`
	Archive            string   `json:"archive"`
	Targets            []string `json:"targets"`
	Volumes            int      `json:"volumes"`
	RunningTasks       int      `json:"running_tasks"`
	MaxConcurrentTasks int      `json:"max_concurrent_tasks"`
	Uptime             string   `json:"uptime"`
	Version            string   `json:"version"`
}

// TaskInfo represents one running task
type TaskInfo struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Volume    string `json:"volume"`
	Target    string `json:"target,omitempty"`
	StartedAt string `json:"started_at"`
}

// TaskRecord represents one finished task
type TaskRecord struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Volume     string  `json:"volume"`
	Target     string  `json:"target,omitempty"`
	Status     string  `json:"status"`
	StartedAt  string  `json:"started_at"`
	FinishedAt string  `json:"finished_at"`
	Duration   float64 `json:"duration_seconds"`
	Error      string  `json:"error,omitempty"`
	Detail     string  `json:"detail,omitempty"`
}

// TasksResponse represents the running and recently finished tasks
type TasksResponse struct {
	Running []TaskInfo   `json:"running"`
	Recent  []TaskRecord `json:"recent"`
}

// VolumeResponse represents one volume on the archive
type VolumeResponse struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// VolumeListResponse represents list volumes response
type VolumeListResponse struct {
	Volumes []VolumeResponse `json:"volumes"`
	Count   int              `json:"count"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
