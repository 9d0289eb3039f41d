package middleware

import (
	"testing"

	"yuksekolah_go/models"
)

func TestNewActivityLogAnonymous(t *testing.T) {
	entry := newActivityLog(nil, "CREATE", "registrations", 5,
		map[string]interface{}{"program": "IPA"}, "10.0.0.1", "test-agent")

	if entry.UserID != nil {
		t.Errorf("anonymous action must record a NULL user_id, got %v", *entry.UserID)
	}
	if entry.Action != "CREATE" || entry.Resource != "registrations" || entry.ResourceID != 5 {
		t.Errorf("unexpected audit row: %+v", entry)
	}
	if entry.Details.IsNull() {
		t.Error("details must be serialized into the audit row")
	}
	if entry.IPAddress != "10.0.0.1" || entry.UserAgent != "test-agent" {
		t.Errorf("request metadata not recorded: %+v", entry)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("created_at must be stamped")
	}
}

func TestNewActivityLogAuthenticated(t *testing.T) {
	user := &models.User{BaseModel: models.BaseModel{ID: 42}, Role: models.RoleSchoolAdmin}
	entry := newActivityLog(user, "LOGIN", "auth", 42, nil, "", "")

	if entry.UserID == nil || *entry.UserID != 42 {
		t.Errorf("user_id = %v, want 42", entry.UserID)
	}
	if !entry.Details.IsNull() {
		t.Errorf("nil details must stay null, got %s", entry.Details)
	}
}
