// Package report accumulates probe findings into a single result document.
package report

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Finding codes recorded by the probe modules.
const (
	CodeElasticExposed = "ESA-ELASTIC-EXPOSED"
	CodeElasticAuth    = "ESA-ELASTIC-AUTH"
	CodeElasticHTTP    = "ESA-ELASTIC-HTTP"
	CodeMiscTech       = "ESA-MISC-TECH"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusError    = "error"
)

// Vulnerability is a single reported finding.
type Vulnerability struct {
	Code string `json:"code"`
	Note string `json:"note,omitempty"`
}

// Node is an inventory entry discovered on the target (software component,
// user account, ...).
type Node struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Result is the final report document, marshaled to JSON in --json mode.
type Result struct {
	RunID           string            `json:"run_id"`
	Target          string            `json:"target"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
	Status          string            `json:"status"`
	Message         string            `json:"message,omitempty"`
	Vulnerabilities []Vulnerability   `json:"vulnerabilities"`
	Properties      map[string]string `json:"properties"`
	Nodes           []Node            `json:"nodes"`
}

// Report is a thread-safe accumulator of findings. Probe modules run
// concurrently and share one Report per run.
type Report struct {
	mu     sync.Mutex
	result Result
}

// New creates an empty report for the given target.
func New(target string) *Report {
	return &Report{
		result: Result{
			RunID:      uuid.NewString(),
			Target:     target,
			StartedAt:  time.Now().UTC(),
			Status:     StatusRunning,
			Properties: map[string]string{},
		},
	}
}

// AddVulnerability records a finding. Duplicate codes are kept once; a later
// non-empty note wins over an empty one.
func (r *Report) AddVulnerability(code, note string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, v := range r.result.Vulnerabilities {
		if v.Code == code {
			if v.Note == "" && note != "" {
				r.result.Vulnerabilities[i].Note = note
			}
			return
		}
	}
	r.result.Vulnerabilities = append(r.result.Vulnerabilities, Vulnerability{Code: code, Note: note})
}

// SetProperty records a target property (e.g. authentication: disabled).
func (r *Report) SetProperty(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Properties[key] = value
}

// AddNode records an inventory node.
func (r *Report) AddNode(nodeType string, properties map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Nodes = append(r.result.Nodes, Node{Type: nodeType, Properties: properties})
}

// Finish marks the run as completed.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Status = StatusFinished
	r.result.FinishedAt = time.Now().UTC()
}

// Fail marks the run as aborted with a message.
func (r *Report) Fail(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Status = StatusError
	r.result.Message = message
	r.result.FinishedAt = time.Now().UTC()
}

// Result returns a snapshot copy of the accumulated result.
func (r *Report) Result() Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.result
	snapshot.Vulnerabilities = append([]Vulnerability(nil), r.result.Vulnerabilities...)
	snapshot.Nodes = append([]Node(nil), r.result.Nodes...)
	snapshot.Properties = make(map[string]string, len(r.result.Properties))
	for k, v := range r.result.Properties {
		snapshot.Properties[k] = v
	}
	return snapshot
}

// JSON renders the result document with indentation.
func (r *Report) JSON() ([]byte, error) {
	snapshot := r.Result()
	return json.MarshalIndent(snapshot, "", "  ")
}
