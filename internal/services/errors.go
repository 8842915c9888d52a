package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDataAnomaly     = errors.New("data anomaly")
	ErrExternalTool    = errors.New("external tool error")
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotFound        = errors.New("not found")
	ErrTimeout         = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ToolFailure tags err from an external tool run under ctx. A run cut short by
// the context deadline is marked ErrTimeout; anything else ErrExternalTool.
func ToolFailure(ctx context.Context, tool, operation, message string, err error) error {
	marker := ErrExternalTool
	if ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		marker = ErrTimeout
	}
	return Wrap(marker, tool, operation, message, err)
}

// InvalidArgument reports a missing or malformed required input of op.
func InvalidArgument(op, name string) error {
	return fmt.Errorf("%w: %s: %s is required", ErrInvalidArgument, op, name)
}

// Anomaly is a soft, non-fatal data condition observed during analysis. The
// operation that reports it still returns a complete result.
type Anomaly struct {
	Op     string `json:"op"`
	Detail string `json:"detail"`
}

func (a Anomaly) Error() string {
	if a.Op == "" {
		return "data anomaly: " + a.Detail
	}
	return "data anomaly: " + a.Op + ": " + a.Detail
}

func (a Anomaly) Unwrap() error { return ErrDataAnomaly }

// IsFatal reports whether err should abort the calling operation. Anomalies
// and nil errors are not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var anomaly Anomaly
	if errors.As(err, &anomaly) {
		return false
	}
	return !errors.Is(err, ErrDataAnomaly)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
