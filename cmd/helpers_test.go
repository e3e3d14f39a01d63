package cmd

import (
	"errors"
	"fmt"
	"testing"

	kerrors "github.com/PolarWolf314/restore-secrets/internal/errors"
)

func TestReported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"Plain", kerrors.ErrNoPassphrase, false},
		{"Marked", reported(kerrors.ErrNoPassphrase), true},
		{"WrappedAfterMarking", fmt.Errorf("restore: %w", reported(errRestoreIncomplete)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reported(tt.err); got != tt.want {
				t.Errorf("Reported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	if reported(nil) != nil {
		t.Errorf("reported(nil) should stay nil")
	}
	if err := reported(kerrors.ErrInvalidSettings); !errors.Is(err, kerrors.ErrInvalidSettings) || err.Error() != kerrors.ErrInvalidSettings.Error() {
		t.Errorf("reported() must keep the wrapped error visible, got %v", err)
	}
}
