package pipeline

import "time"

// Node names, in execution order.
const (
	NodeEnsureSchema = "ensure_schema"
	NodeExtract      = "extract"
	NodeTransform    = "transform"
	NodeLoad         = "load"
)

// NodeStatus is the state of a single node within a run.
type NodeStatus string

// Node states. A node moves pending → running → succeeded, or through
// retrying back to running until the attempt bound is exhausted, at
// which point it is failed-terminal. Nodes downstream of a terminal
// failure are skipped.
const (
	NodePending        NodeStatus = "pending"
	NodeRunning        NodeStatus = "running"
	NodeRetrying       NodeStatus = "retrying"
	NodeSucceeded      NodeStatus = "succeeded"
	NodeFailedTerminal NodeStatus = "failed_terminal"
	NodeSkipped        NodeStatus = "skipped"
)

// RunStatus is the overall state of a run.
type RunStatus string

// Run states.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// NodeResult reports one node's outcome back to whatever scheduler
// drives the pipeline.
type NodeResult struct {
	Name     string     `json:"name"`
	Status   NodeStatus `json:"status"`
	Attempts int        `json:"attempts"`
	Error    string     `json:"error,omitempty"`
}

// RunResult is the structured report for one pipeline run.
type RunResult struct {
	RunID       string       `json:"run_id"`
	LogicalDate string       `json:"logical_date"`
	Status      RunStatus    `json:"status"`
	Error       string       `json:"error,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Nodes       []NodeResult `json:"nodes"`
}

// Succeeded reports whether all nodes completed.
func (r *RunResult) Succeeded() bool {
	return r.Status == RunSucceeded
}

// Node returns the result for a named node, or nil if unknown.
func (r *RunResult) Node(name string) *NodeResult {
	for i := range r.Nodes {
		if r.Nodes[i].Name == name {
			return &r.Nodes[i]
		}
	}

	return nil
}
