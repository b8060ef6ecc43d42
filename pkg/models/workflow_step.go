package models

// Step is one unit of work: a literal shell command line plus its own
// timeout/retry/failure overrides.
type Step struct {
	ID      string `json:"id"      yaml:"id"      validate:"required"`
	Name    string `json:"name"    yaml:"name"`
	Command string `json:"command" yaml:"command" validate:"required"`
	Enabled bool   `json:"enabled" yaml:"enabled"`

	// Timeout in seconds for this step. Zero inherits the engine default.
	Timeout int `json:"timeout" yaml:"timeout"`

	// Retry is the number of re-executions before the step counts as
	// failed. Negative inherits the workflow policy's RetryCount.
	Retry int `json:"retry" yaml:"retry"`

	// OnFailure overrides the workflow policy for this one step when set.
	OnFailure FailureMode `json:"on_failure,omitempty" yaml:"on_failure,omitempty" validate:"omitempty,oneof=stop continue"`
}

// Retries resolves the effective retry count against the workflow policy.
func (s *Step) Retries(policy ExecutionPolicy) int {
	if s.Retry >= 0 {
		return s.Retry
	}

	return policy.RetryCount
}

// FailurePolicy resolves the effective failure mode against the workflow policy.
func (s *Step) FailurePolicy(policy ExecutionPolicy) FailureMode {
	if s.OnFailure != "" {
		return s.OnFailure
	}

	return policy.OnFailure
}
