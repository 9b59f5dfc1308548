package services_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"curator/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "taxonomy", "reload", "missing tv section", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected wrapped error to carry ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "taxonomy: reload: missing tv section") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := services.Wrap(services.ErrExternal, "qbittorrent", "add", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error to preserve cause, got %v", err)
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{services.Wrap(services.ErrValidation, "a", "b", "c", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrNotFound, "a", "b", "c", nil), http.StatusNotFound},
		{services.Wrap(services.ErrUnavailable, "a", "b", "c", nil), http.StatusBadGateway},
		{services.Wrap(services.ErrExternal, "a", "b", "c", nil), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := services.HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
