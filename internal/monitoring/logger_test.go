package monitoring

import "testing"

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) { got = format })
	Logf("placement dropped: %v")
	if got != "placement dropped: %v" {
		t.Errorf("custom logger got %q", got)
	}

	// nil installs a no-op, not a nil func.
	SetLogger(nil)
	got = ""
	Logf("should be swallowed")
	if got != "" {
		t.Error("no-op logger still forwarded")
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf must be usable without SetLogger")
	}
}
