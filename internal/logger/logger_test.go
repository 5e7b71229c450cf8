package logger

import "testing"

func TestInit_FirstCallWins(t *testing.T) {
	Init("test")
	Init("production")

	if IsProduction() {
		t.Error("IsProduction() = true after Init(\"test\")")
	}
	if Get() == nil || Named("otp") == nil {
		t.Fatal("expected a usable logger")
	}
	Sync()
}
