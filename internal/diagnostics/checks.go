package diagnostics

import (
	"context"
	"fmt"
	"time"
)

// Status is the outcome of one check.
type Status int

const (
	StatusOK Status = iota
	StatusFail
	StatusSkip
)

// Symbol returns the mark printed before the check name.
func (s Status) Symbol() string {
	switch s {
	case StatusOK:
		return "✓"
	case StatusFail:
		return "✗"
	default:
		return "○"
	}
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFail:
		return "fail"
	default:
		return "skip"
	}
}

// Check is one line of the doctor report.
type Check struct {
	Name     string
	Status   Status
	Detail   string
	Duration time.Duration
}

// Probe runs a single check.
type Probe struct {
	Name string
	Run  func(ctx context.Context) (detail string, err error)
	// Skip, when set and returning a reason, marks the check skipped.
	Skip func() string
}

// Report is the ordered list of results.
type Report []Check

// Failed reports whether any check failed.
func (r Report) Failed() bool {
	for _, c := range r {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}

// Run executes probes in order. Each probe gets its own timeout.
func Run(ctx context.Context, timeout time.Duration, probes ...Probe) Report {
	report := make(Report, 0, len(probes))
	for _, p := range probes {
		if p.Skip != nil {
			if reason := p.Skip(); reason != "" {
				report = append(report, Check{Name: p.Name, Status: StatusSkip, Detail: reason})
				continue
			}
		}

		pctx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		detail, err := p.Run(pctx)
		cancel()

		c := Check{Name: p.Name, Status: StatusOK, Detail: detail, Duration: time.Since(start)}
		if err != nil {
			c.Status = StatusFail
			c.Detail = err.Error()
		}
		report = append(report, c)
	}
	return report
}

// BackendProbe checks that the assistant API answers /health.
func BackendProbe(baseURL string, health func(ctx context.Context) error) Probe {
	return Probe{
		Name: "backend",
		Run: func(ctx context.Context) (string, error) {
			start := time.Now()
			if err := health(ctx); err != nil {
				return "", fmt.Errorf("%s unreachable: %w", baseURL, err)
			}
			return fmt.Sprintf("%s (%s)", baseURL, time.Since(start).Round(time.Millisecond)), nil
		},
	}
}

// ValidateProbe reports a validation function's result.
func ValidateProbe(name, okDetail string, validate func() error) Probe {
	return Probe{
		Name: name,
		Run: func(context.Context) (string, error) {
			if err := validate(); err != nil {
				return "", err
			}
			return okDetail, nil
		},
	}
}

// HostProbe summarizes the machine.
func HostProbe(dir string) Probe {
	return Probe{
		Name: "host",
		Run: func(ctx context.Context) (string, error) {
			h := CollectHost(ctx, dir)
			return fmt.Sprintf("%s/%s %s %s, %d cores, %.0f MB RAM (%.0f%% used), %.1f GB free",
				h.OS, h.Arch, h.Platform, h.PlatformVersion, h.CPUCores, h.MemTotalMB, h.MemPercent, h.DiskFreeGB), nil
		},
	}
}
