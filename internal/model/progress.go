package model

import "time"

// WorkerStatus is the lifecycle state of one partition's worker.
type WorkerStatus string

const (
	WorkerPending  WorkerStatus = "pending"
	WorkerRunning  WorkerStatus = "running"
	WorkerStopping WorkerStatus = "stopping"
	WorkerStopped  WorkerStatus = "stopped"
	WorkerCompleted WorkerStatus = "completed"
	WorkerFailed   WorkerStatus = "failed"
)

// WorkerProgress tracks one partition's transfer progress.
type WorkerProgress struct {
	WorkerIndex      int          `json:"worker_index"`
	Items            []string     `json:"items"`
	FilesTotal       int64        `json:"files_total"`
	BytesTotal       int64        `json:"bytes_total"`
	FilesTransferred int64        `json:"files_transferred"`
	BytesTransferred int64        `json:"bytes_transferred"`
	CurrentItem      string       `json:"current_item,omitempty"`
	Rate             string       `json:"rate,omitempty"`
	Status           WorkerStatus `json:"status"`
	Errors           []string     `json:"errors,omitempty"`
}

// Progress is the live, mutable record for one job's active run. It is
// recreated on every start and never persisted.
type Progress struct {
	JobID            string           `json:"job_id"`
	Status           Status           `json:"status"`
	CurrentFile      string           `json:"current_file,omitempty"`
	FilesTotal       int64            `json:"files_total"`
	FilesTransferred int64            `json:"files_transferred"`
	BytesTotal       int64            `json:"bytes_total"`
	BytesTransferred int64            `json:"bytes_transferred"`
	TransferRate     string           `json:"transfer_rate,omitempty"`
	ETA              string           `json:"eta,omitempty"`
	PercentComplete  float64          `json:"percent_complete"`
	StartedAt        time.Time        `json:"started_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	Workers          []WorkerProgress `json:"workers"`
}

// RecomputeAggregate recomputes the two aggregate scalars and percent
// complete from the worker slice, enforcing the sum-consistency invariant
// from the data model: files_transferred/bytes_transferred must always
// equal the sum over workers.
func (p *Progress) RecomputeAggregate() {
	var files, bytes int64
	for _, w := range p.Workers {
		files += w.FilesTransferred
		bytes += w.BytesTransferred
	}
	p.FilesTransferred = files
	p.BytesTransferred = bytes
	if p.BytesTotal > 0 {
		p.PercentComplete = float64(p.BytesTransferred) / float64(p.BytesTotal) * 100
	} else {
		p.PercentComplete = 0
	}
}

// Snapshot returns a deep-enough copy safe to hand to subscribers without
// racing the live record (workers slice and its contents are copied).
func (p *Progress) Snapshot() Progress {
	cp := *p
	cp.Workers = make([]WorkerProgress, len(p.Workers))
	for i, w := range p.Workers {
		wc := w
		wc.Items = append([]string(nil), w.Items...)
		wc.Errors = append([]string(nil), w.Errors...)
		cp.Workers[i] = wc
	}
	return cp
}
