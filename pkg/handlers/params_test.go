package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestParseSessionID(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		pathValue  string
		wantOK     bool
		wantNilID  bool
		wantStatus int
		wantError  string
	}{
		{
			name:      "valid UUID",
			pathValue: "550e8400-e29b-41d4-a716-446655440000",
			wantOK:    true,
			wantNilID: false,
		},
		{
			name:       "invalid UUID",
			pathValue:  "not-a-uuid",
			wantOK:     false,
			wantNilID:  true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_session_id",
		},
		{
			name:       "empty UUID",
			pathValue:  "",
			wantOK:     false,
			wantNilID:  true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_session_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("sid", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseSessionID(rec, req, logger)

			if ok != tt.wantOK {
				t.Errorf("ParseSessionID() ok = %v, want %v", ok, tt.wantOK)
			}

			if tt.wantNilID && id != uuid.Nil {
				t.Errorf("ParseSessionID() id = %v, want uuid.Nil", id)
			}

			if !tt.wantOK {
				if rec.Code != tt.wantStatus {
					t.Errorf("ParseSessionID() status = %v, want %v", rec.Code, tt.wantStatus)
				}

				var resp ApiResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Error != tt.wantError {
					t.Errorf("ParseSessionID() error = %v, want %v", resp.Error, tt.wantError)
				}
				if resp.Message != "Invalid session ID format" {
					t.Errorf("ParseSessionID() message = %v, want 'Invalid session ID format'", resp.Message)
				}
			}
		})
	}
}

func TestParseUUID_PathParamVariations(t *testing.T) {
	logger := zap.NewNop()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	validUUID := uuid.New()
	req.SetPathValue("custom_param", validUUID.String())
	rec := httptest.NewRecorder()

	id, ok := parseUUID(rec, req, "custom_param", "custom_error", "Custom error message", logger)

	if !ok {
		t.Error("parseUUID() ok = false, want true")
	}
	if id != validUUID {
		t.Errorf("parseUUID() id = %v, want %v", id, validUUID)
	}
}

func TestParseUUID_CustomErrorMessages(t *testing.T) {
	logger := zap.NewNop()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.SetPathValue("my_id", "not-valid")
	rec := httptest.NewRecorder()

	_, ok := parseUUID(rec, req, "my_id", "my_error_code", "My custom error message", logger)

	if ok {
		t.Error("parseUUID() ok = true, want false")
	}

	var resp ApiResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != "my_error_code" {
		t.Errorf("parseUUID() error = %v, want my_error_code", resp.Error)
	}
	if resp.Message != "My custom error message" {
		t.Errorf("parseUUID() message = %v, want 'My custom error message'", resp.Message)
	}
}
