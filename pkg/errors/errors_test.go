package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeInsufficient, http.StatusUnprocessableEntity},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeDependency, http.StatusServiceUnavailable},
		{Code("bogus"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s) status = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeDependency, cause, "payment provider call")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable with errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsUnwrapsThroughFmtErrors(t *testing.T) {
	inner := New(CodeInsufficient, "stock too low")
	wrapped := fmt.Errorf("reserve batch: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInsufficient {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]string{"field": "amount"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["field"] != "amount" {
		t.Fatalf("unexpected details: %v", err.Details())
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeInternal, errors.New("db down"), "persist order")
	dump := Dump(err)
	if dump.Code != CodeInternal {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected chain entries, got %v", dump.Chain)
	}
}
