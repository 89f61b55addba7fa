package hostcall

import (
	"testing"
	"time"
)

func TestEmptyWindowAlwaysAllowed(t *testing.T) {
	w := NewWindow("")
	ok, err := w.Allowed(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected empty window to always allow")
	}
}

func TestWindowMatchesConfiguredHours(t *testing.T) {
	w := NewWindow("0 8-18 * * *")
	inWindow := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	ok, err := w.Allowed(inWindow)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("expected %v to be within window", inWindow)
	}
}

func TestWindowRejectsOutsideHours(t *testing.T) {
	w := NewWindow("0 8-18 * * *")
	outside := time.Date(2026, 7, 31, 10, 30, 0, 0, time.UTC)
	ok, err := w.Allowed(outside)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("expected %v (not on the hour) to be outside window", outside)
	}
}

func TestValidRejectsMalformedExpression(t *testing.T) {
	if Valid("not a cron expr") {
		t.Error("expected malformed expression to be invalid")
	}
	if !Valid("0 8-18 * * *") {
		t.Error("expected well-formed expression to be valid")
	}
	if !Valid("") {
		t.Error("expected empty expression to be valid")
	}
}
