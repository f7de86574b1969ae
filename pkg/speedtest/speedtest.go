package speedtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"isp-tracker/pkg/models"
)

// bandwidth values in the CLI report are bytes per second.
const bytesPerSecToMbps = 8.0 / 1_000_000

// report mirrors the fields of the speedtest CLI JSON output that the
// collector consumes. Sections and leaf fields are pointers so a missing
// value can be told apart from a zero one.
type report struct {
	Download *struct {
		Bandwidth *float64 `json:"bandwidth"`
	} `json:"download"`
	Upload *struct {
		Bandwidth *float64 `json:"bandwidth"`
	} `json:"upload"`
	Ping *struct {
		Latency *float64 `json:"latency"`
	} `json:"ping"`
	Server *struct {
		Name     *string `json:"name"`
		Location *string `json:"location"`
	} `json:"server"`
}

// ProcessError indicates the speedtest CLI exited non-zero. Stderr carries
// the CLI's own diagnostics for the log.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("speedtest exited with status %d: %s", e.ExitCode, e.Stderr)
}

// ParseError indicates the CLI output did not match the expected JSON
// structure. A missing section counts the same as invalid JSON: the cycle
// yields no result rather than a partial one.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing speedtest output: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parsing speedtest output: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Runner invokes the speedtest CLI and turns its JSON report into a
// SpeedResult. One external process per call; retries are left to the next
// scheduled cycle.
type Runner struct {
	binary   string
	serverID string
	logger   *slog.Logger

	// replaced in tests
	execute func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

func NewRunner(serverID string, logger *slog.Logger) *Runner {
	return &Runner{
		binary:   "speedtest",
		serverID: serverID,
		logger:   logger,
		execute:  runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// args builds the CLI invocation. Consent flags are passed unconditionally
// so an unattended first run never blocks on a license prompt.
func (r *Runner) args() []string {
	args := []string{"--format=json", "--accept-license", "--accept-gdpr"}
	if r.serverID != "" {
		args = append(args, "--server-id", r.serverID)
	}
	return args
}

// Run executes one measurement and returns the normalized result. On any
// failure it returns nil and a ProcessError or ParseError; it never returns
// a partially filled result.
func (r *Runner) Run(ctx context.Context) (*models.SpeedResult, error) {
	r.logger.Info("Running speed test", "serverID", r.serverID)

	stdout, stderr, err := r.execute(ctx, r.binary, r.args()...)
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &ProcessError{
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(string(stderr)),
		}
	}

	result, err := parseReport(stdout)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Speed test completed",
		"downloadMbps", result.DownloadMbps,
		"uploadMbps", result.UploadMbps,
		"pingMs", result.PingMs,
		"server", result.ServerName)

	return result, nil
}

func parseReport(raw []byte) (*models.SpeedResult, error) {
	var rep report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, &ParseError{Reason: "output is not valid JSON", Err: err}
	}

	switch {
	case rep.Download == nil || rep.Download.Bandwidth == nil:
		return nil, &ParseError{Reason: "missing download bandwidth"}
	case rep.Upload == nil || rep.Upload.Bandwidth == nil:
		return nil, &ParseError{Reason: "missing upload bandwidth"}
	case rep.Ping == nil || rep.Ping.Latency == nil:
		return nil, &ParseError{Reason: "missing ping latency"}
	case rep.Server == nil || rep.Server.Name == nil || rep.Server.Location == nil:
		return nil, &ParseError{Reason: "missing server name or location"}
	}

	return &models.SpeedResult{
		DownloadMbps:   *rep.Download.Bandwidth * bytesPerSecToMbps,
		UploadMbps:     *rep.Upload.Bandwidth * bytesPerSecToMbps,
		PingMs:         *rep.Ping.Latency,
		ServerName:     *rep.Server.Name,
		ServerLocation: *rep.Server.Location,
	}, nil
}
