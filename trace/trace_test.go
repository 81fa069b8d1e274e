package trace

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldString(t *testing.T) {
	tests := []struct {
		f    Field
		want string
	}{
		{Hex("address", 0x1000), "0x1000"},
		{Bin("perms", 5), "0b101"},
		{Int("index", -1), "-1"},
		{Uint("count", 1<<63), "9223372036854775808"},
		{Bool("is64Bit", true), "true"},
		{Bool("is64Bit", false), "false"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.f.Key, got, tt.want)
		}
	}
}

func TestZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := Zap(zap.New(core))
	if !s.Enabled() {
		t.Fatal("debug sink reports disabled")
	}
	s.Call("MemMap", Hex("address", 0x1000), Bin("perms", 3))
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("%d entries", len(entries))
	}
	e := entries[0]
	if e.Message != "MemMap" || e.Level != zapcore.DebugLevel {
		t.Fatalf("entry %q at %v", e.Message, e.Level)
	}
	if m := e.ContextMap(); m["address"] != "0x1000" || m["perms"] != "0b11" {
		t.Fatalf("fields %v", m)
	}

	info, _ := observer.New(zapcore.InfoLevel)
	if Zap(zap.New(info)).Enabled() {
		t.Fatal("info sink reports debug enabled")
	}
	if Zap(nil) != Nop {
		t.Fatal("nil logger is not Nop")
	}
}

func TestLogrus(t *testing.T) {
	l, hook := logtest.NewNullLogger()
	s := Logrus(l)
	if s.Enabled() {
		t.Fatal("info logger reports debug enabled")
	}
	l.SetLevel(logrus.DebugLevel)
	if !s.Enabled() {
		t.Fatal("debug logger reports disabled")
	}
	s.Call("SetStackPointer", Hex("value", 0x7FFF0000))
	e := hook.LastEntry()
	if e == nil || e.Message != "SetStackPointer" || e.Level != logrus.DebugLevel {
		t.Fatalf("entry %+v", e)
	}
	if e.Data["value"] != "0x7fff0000" {
		t.Fatalf("fields %v", e.Data)
	}
	if !Logrus(l.WithField("cpu", 0)).Enabled() {
		t.Fatal("entry sink reports disabled")
	}
}

func TestNop(t *testing.T) {
	if Nop.Enabled() {
		t.Fatal("Nop enabled")
	}
	Nop.Call("MemMap", Hex("address", 0))
}
