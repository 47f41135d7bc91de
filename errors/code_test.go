package errors

import (
	"fmt"
	"testing"
)

func TestInfo(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"nil error": {
			err:      nil,
			wantCode: SuccessCode,
			wantLog:  "",
		},
		"registered error": {
			err:      ErrNotFound,
			wantCode: ErrNotFound.code,
			wantLog:  "not found",
		},
		"wrapped registered error": {
			err:      Wrap(ErrState, "escrow"),
			wantCode: ErrState.code,
			wantLog:  "escrow: invalid state",
		},
		"stdlib error is redacted": {
			err:      fmt.Errorf("disk on fire"),
			wantCode: internalCode,
			wantLog:  internalLog,
		},
		"stdlib error in debug mode": {
			err:      fmt.Errorf("disk on fire"),
			debug:    true,
			wantCode: internalCode,
			wantLog:  "disk on fire",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			code, log := Info(tc.err, tc.debug)
			if code != tc.wantCode {
				t.Errorf("want %d code, got %d", tc.wantCode, code)
			}
			if log != tc.wantLog {
				t.Errorf("want %q log, got %q", tc.wantLog, log)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	if err := Redact(ErrPanic, false); ErrPanic.Is(err) {
		t.Fatal("panic must be redacted")
	}
	if err := Redact(ErrPanic, true); !ErrPanic.Is(err) {
		t.Fatal("debug mode must keep the panic")
	}
	if err := Redact(Wrap(ErrAmount, "negative"), false); !ErrAmount.Is(err) {
		t.Fatal("registered errors must not be redacted")
	}
	if err := Redact(fmt.Errorf("stdlib"), false); err.Error() != internalLog {
		t.Fatalf("unexpected error: %s", err)
	}
}
