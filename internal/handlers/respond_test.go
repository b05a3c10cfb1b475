package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestRespondWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	respondWithJSON(rec, 201, map[string]string{"message": "created"})

	if rec.Code != 201 {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json content type, got %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["message"] != "created" {
		t.Errorf("Unexpected body: %v", body)
	}
}

func TestRespondWithJSONEncodeFailureKeepsStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	respondWithJSON(rec, 200, map[string]interface{}{"bad": make(chan int)})

	// The committed status must not be overwritten by the failure path
	if rec.Code != 200 {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

func TestRespondWithJSONNilSliceBecomesArray(t *testing.T) {
	rec := httptest.NewRecorder()

	var roles []string
	respondWithJSON(rec, 200, map[string]interface{}{"roles": roles})

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if _, ok := body["roles"].([]interface{}); !ok {
		t.Errorf("Expected roles to encode as an array, got %T", body["roles"])
	}
}
