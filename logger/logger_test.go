package logger

import "testing"

func TestSetLogLevel(t *testing.T) {
	defer SetLogLevel("INFO")

	for _, name := range []string{"debug", "INFO", "Warn", "ERROR"} {
		if err := SetLogLevel(name); err != nil {
			t.Errorf("SetLogLevel(%q): %v", name, err)
		}
	}
	if err := SetLogLevel("verbose"); err == nil {
		t.Error("SetLogLevel(\"verbose\") should fail")
	}
}

func TestGetLogLevelRoundTrip(t *testing.T) {
	defer SetLogLevel("INFO")

	if err := SetLogLevel("warn"); err != nil {
		t.Fatal(err)
	}
	if got := GetLogLevel(); got != "WARN" {
		t.Errorf("GetLogLevel() = %q, want WARN", got)
	}
}
