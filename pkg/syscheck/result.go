package syscheck

// Status classifies a check outcome.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	// StatusSkip marks checks that could not run meaningfully (for example a
	// device probe with no devices attached). Skips never count as failures.
	StatusSkip Status = "skip"
)

// Result is the outcome of one environment check.
type Result struct {
	Name   string
	Status Status
	// Detail holds human-readable findings (matched lsusb lines, module
	// names, unit state).
	Detail string
	// Tip suggests a remediation when the check failed.
	Tip string
}

// Passed reports whether the check did not fail (pass or skip).
func (r Result) Passed() bool { return r.Status != StatusFail }

func pass(name, detail string) Result {
	return Result{Name: name, Status: StatusPass, Detail: detail}
}

func fail(name, detail, tip string) Result {
	return Result{Name: name, Status: StatusFail, Detail: detail, Tip: tip}
}

func skip(name, detail string) Result {
	return Result{Name: name, Status: StatusSkip, Detail: detail}
}
