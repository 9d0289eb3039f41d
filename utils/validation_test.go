package utils

import "testing"

type sampleRequest struct {
	SchoolName           string `json:"school_name" validate:"required,min=3"`
	AdminEmail           string `json:"admin_email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
	Status               string `json:"status" validate:"omitempty,oneof=verified rejected"`
}

func TestValidateStructValid(t *testing.T) {
	req := sampleRequest{
		SchoolName:           "SMA Negeri 1",
		AdminEmail:           "admin@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
		Status:               "verified",
	}
	if errs := ValidateStruct(req); errs != nil {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidateStructFieldErrors(t *testing.T) {
	req := sampleRequest{
		SchoolName:           "AB",
		AdminEmail:           "not-an-email",
		Password:             "short",
		PasswordConfirmation: "different",
		Status:               "pending",
	}
	errs := ValidateStruct(req)
	if errs == nil {
		t.Fatal("expected validation errors")
	}

	for _, field := range []string{"school_name", "admin_email", "password", "password_confirmation", "status"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected an error for field %q, got %v", field, errs)
		}
	}
}

func TestValidateStructRequired(t *testing.T) {
	errs := ValidateStruct(sampleRequest{})
	if errs == nil {
		t.Fatal("expected validation errors for empty struct")
	}
	msgs, ok := errs["school_name"]
	if !ok || len(msgs) == 0 {
		t.Fatalf("expected required error on school_name, got %v", errs)
	}
	if msgs[0] != "This field is required" {
		t.Errorf("unexpected message: %q", msgs[0])
	}
}
