package logging

import (
	"bytes"
	"testing"
)

func TestUserOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	oldOut, oldErr := UserOut, UserErr
	UserOut, UserErr = &out, &errOut
	t.Cleanup(func() { UserOut, UserErr = oldOut, oldErr })

	UserInfo("leases: %d", 2)
	UserSuccess("released %d", 10000)
	UserWarning("port %d busy", 10001)
	UserError("failed: %s", "boom")

	if got, want := out.String(), "ℹ leases: 2\n✓ released 10000\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if got, want := errOut.String(), "⚠ port 10001 busy\n✗ failed: boom\n"; got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}
