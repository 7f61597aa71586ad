package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeTransform, StageTransform, "bad batch")
	if err.Code != ErrCodeTransform {
		t.Errorf("expected code %s, got %s", ErrCodeTransform, err.Code)
	}
	if err.Message != "bad batch" {
		t.Errorf("expected message 'bad batch', got %q", err.Message)
	}
	if err.Seq != -1 {
		t.Errorf("expected seq -1 by default, got %d", err.Seq)
	}
	if err.Retryable {
		t.Error("TRANSFORM should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeOutputResource, StagePublish, "upload failed")
	if !err.Retryable {
		t.Error("OUTPUT_RESOURCE should be retryable")
	}
}

func TestAppError_Transform_Success(t *testing.T) {
	cause := fmt.Errorf("bad POS")
	err := Transform(3, cause)
	if err.Code != ErrCodeTransform {
		t.Errorf("expected TRANSFORM, got %s", err.Code)
	}
	if err.Seq != 3 {
		t.Errorf("expected seq 3, got %d", err.Seq)
	}
	if err.Stage != StageTransform {
		t.Errorf("expected stage %q, got %q", StageTransform, err.Stage)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
}

func TestAppError_Configuration_Field(t *testing.T) {
	err := Configuration("parallelism", "must be positive")
	if err.Details["field"] != "parallelism" {
		t.Errorf("expected field=parallelism, got %v", err.Details["field"])
	}

	err2 := Configuration("", "broken")
	if _, ok := err2.Details["field"]; ok {
		t.Error("expected no 'field' key when field is empty")
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := OutputResource("/tmp/out.avro", nil).WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := InputResource("in.vcf", nil).WithDetails(map[string]any{
		"extra": "info",
	})
	if err.Details["extra"] != "info" {
		t.Errorf("expected extra=info in details")
	}
	if err.Details["path"] != "in.vcf" {
		t.Error("expected original details to be preserved")
	}

	err.WithDetails(map[string]any{"another": "detail"})
	if err.Details["another"] != "detail" {
		t.Error("expected another=detail to be merged")
	}
	if err.Details["extra"] != "info" {
		t.Error("expected extra=info to be preserved after second merge")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details == nil {
		t.Fatal("expected Details map to be initialized")
	}
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := DecodeBoundary(7, "header line after data")
	s := err.Error()
	for _, want := range []string{"DECODE_BOUNDARY", "[read]", "seq=7", "header line after data"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in error string, got %q", want, s)
		}
	}

	noSeq := Configuration("codec", "unknown codec").Error()
	if strings.Contains(noSeq, "seq=") {
		t.Errorf("expected no seq in %q", noSeq)
	}
}

func TestHelpers_WrappedError(t *testing.T) {
	base := Transform(4, fmt.Errorf("boom"))
	wrapped := fmt.Errorf("run: %w", base)

	if CodeOf(wrapped) != ErrCodeTransform {
		t.Errorf("expected TRANSFORM, got %q", CodeOf(wrapped))
	}
	if !IsCode(wrapped, ErrCodeTransform) {
		t.Error("IsCode should see through wrapping")
	}
	if SeqOf(wrapped) != 4 {
		t.Errorf("expected seq 4, got %d", SeqOf(wrapped))
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("plain errors have no code")
	}
	if SeqOf(fmt.Errorf("plain")) != -1 {
		t.Error("plain errors have seq -1")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", fmt.Errorf("x"), 1},
		{"configuration", Configuration("", "x"), 2},
		{"input", InputResource("a", nil), 3},
		{"decode boundary", DecodeBoundary(0, "x"), 4},
		{"transform", Transform(0, nil), 5},
		{"output", OutputResource("b", nil), 6},
		{"metadata", MetadataWrite("c", nil), 7},
		{"canceled", Canceled(nil), 130},
		{"internal", Internal("x"), 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExitCode(tc.err); got != tc.want {
				t.Errorf("ExitCode() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAppError_Fatal(t *testing.T) {
	if MetadataWrite("x.meta", nil).Fatal() {
		t.Error("METADATA_WRITE must be non-fatal")
	}
	for _, err := range []*AppError{
		InputResource("a", nil), DecodeBoundary(1, "x"), Transform(1, nil),
		OutputResource("b", nil), Configuration("", "x"), ShutdownTimeout("1s", nil),
	} {
		if !err.Fatal() {
			t.Errorf("%s should be fatal", err.Code)
		}
	}
}
