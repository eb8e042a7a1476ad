package store

import (
	"errors"
	"testing"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name       string
		skipped    bool
		err        error
		wantStatus string
		wantDetail string
	}{
		{"clean run", false, nil, "done", ""},
		{"skipped item", true, errors.New("unknown type"), "skipped", "unknown type"},
		{"hard failure", false, errors.New("encoder died"), "failed", "encoder died"},
		{"skipped flag without error is still done", true, nil, "done", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := StatusOf(tt.skipped, tt.err)
			if status != tt.wantStatus || detail != tt.wantDetail {
				t.Errorf("StatusOf(%v, %v) = (%q, %q), want (%q, %q)",
					tt.skipped, tt.err, status, detail, tt.wantStatus, tt.wantDetail)
			}
		})
	}
}
