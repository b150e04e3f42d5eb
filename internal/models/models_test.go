package models

import "testing"

func TestSession(t *testing.T) {
	t.Run("new session is stopped", func(t *testing.T) {
		s := NewSession(1)
		if s.Running() {
			t.Error("new session should not be running")
		}
		if s.CreatedAt().IsZero() || !s.CreatedAt().Equal(s.UpdatedAt()) {
			t.Error("timestamps should be initialized together")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		s := NewSession(1)
		if err := s.Validate(); err == nil {
			t.Error("session without ID should not validate")
		}

		s.SetID("abc")
		if err := s.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		s.SetStatus("paused")
		if err := s.Validate(); err == nil {
			t.Error("unknown status should not validate")
		}
	})
}

func TestUpload(t *testing.T) {
	tc := []struct {
		name    string
		upload  *Upload
		wantErr bool
	}{
		{name: "valid", upload: NewUpload(1, "s1", "evictions", "evictions.csv", 10)},
		{name: "missing session", upload: NewUpload(1, "", "evictions", "evictions.csv", 10), wantErr: true},
		{name: "missing category", upload: NewUpload(1, "s1", "", "evictions.csv", 10), wantErr: true},
		{name: "negative size", upload: NewUpload(1, "s1", "evictions", "evictions.csv", -1), wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			tt.upload.SetID("u1")
			if err := tt.upload.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
