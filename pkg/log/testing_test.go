package log

import (
	"context"
	"testing"
)

func TestTestLoggerCapturesEntries(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	logger.Debug("partition built", DimKey, "time", GroupsKey, 4)
	logger.Info("done")

	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0]["message"] != "partition built" {
		t.Errorf("message = %v, want 'partition built'", entries[0]["message"])
	}
	if !logger.ContainsField(DimKey, "time") {
		t.Errorf("missing field %s=time", DimKey)
	}
	if !logger.ContainsMessage("done") {
		t.Error("missing message 'done'")
	}
}

func TestTestLoggerLevelFiltering(t *testing.T) {
	logger, buffer := NewTestLogger(LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	if logger.ContainsMessage("hidden") {
		t.Error("debug output should be filtered at warn level")
	}
	if !logger.ContainsMessage("visible") {
		t.Error("warn output should pass")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("error level should be enabled")
	}
	if logger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug level should be disabled")
	}

	buffer.Reset()
	logger.Warn("after reset")
	entries, _ := logger.GetLogEntries()
	if len(entries) != 1 {
		t.Errorf("after reset got %d entries, want 1", len(entries))
	}
}

func TestTestLoggerWith(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	child := logger.With(ComponentKey, "dimarray", ContainerKey, "DataArray")
	child.Debug("partition built", OperationKey, OperationGroupBy)

	tl := child.(*TestLogger)
	if !tl.ContainsField(ComponentKey, "dimarray") {
		t.Error("With fields should appear on child entries")
	}
	if !tl.ContainsField(OperationKey, OperationGroupBy) {
		t.Error("call-site fields should appear on entries")
	}

	// 親ロガーは影響を受けない
	logger.Clear()
	logger.Debug("plain")
	if logger.ContainsField(ComponentKey, "dimarray") {
		t.Error("parent logger should not inherit child fields")
	}
}

func TestSetLogger(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	tl, _ := NewTestLogger(LevelDebug)
	SetLogger(tl)

	if GetLogger() != Logger(tl) {
		t.Error("GetLogger() should return the logger passed to SetLogger()")
	}
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		if got := ToLogLevel(tt.in); got != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
