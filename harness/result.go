package harness

// ExitInfraFailure is the harness's own exit code for failures that happened
// before (or instead of) a conformance verdict: provisioning, server launch,
// readiness, or a checker binary that could not be executed at all. It is
// deliberately outside the 0/1 range the checker normally uses so a CI gate
// can tell "infrastructure broke" apart from "checks failed".
const ExitInfraFailure = 3

// Stage identifies how far a run progressed.
type Stage int

const (
	StageInit Stage = iota
	StageProvisioned
	StageServerStarting
	StageServerReady
	StageChecking
	StageReaping
	StageReported
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageProvisioned:
		return "provisioned"
	case StageServerStarting:
		return "server starting"
	case StageServerReady:
		return "server ready"
	case StageChecking:
		return "checking"
	case StageReaping:
		return "reaping"
	case StageReported:
		return "reported"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// Result is the terminal state of a run. Code is what the harness process
// should exit with; Err is non-nil only for infrastructure failures.
type Result struct {
	Stage Stage
	Code  int
	Err   error
}

func (r Result) OK() bool {
	return r.Code == 0 && r.Err == nil
}
