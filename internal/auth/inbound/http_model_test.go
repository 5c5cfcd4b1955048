package inbound

import (
	"encoding/json"
	"testing"
)

// Existing clients send the one-time code under the "otp" key, so the
// request models must keep that wire name.
func TestOTPRequestsUseOTPWireField(t *testing.T) {
	var verify VerifyOTPRequest
	if err := json.Unmarshal([]byte(`{"email":"a@x.com","otp":"042613"}`), &verify); err != nil {
		t.Fatalf("failed to decode verify request: %v", err)
	}
	if verify.Code != "042613" {
		t.Fatalf("verify code not decoded, got %q", verify.Code)
	}

	var precheck VerifyResetOTPRequest
	if err := json.Unmarshal([]byte(`{"email":"a@x.com","otp":"118822"}`), &precheck); err != nil {
		t.Fatalf("failed to decode reset precheck request: %v", err)
	}
	if precheck.Code != "118822" {
		t.Fatalf("precheck code not decoded, got %q", precheck.Code)
	}

	var reset ResetPasswordRequest
	if err := json.Unmarshal([]byte(`{"email":"a@x.com","otp":"118822","new_password":"Sup3rSecret!"}`), &reset); err != nil {
		t.Fatalf("failed to decode reset request: %v", err)
	}
	if reset.Code != "118822" || reset.NewPassword != "Sup3rSecret!" {
		t.Fatalf("reset request not decoded, got %+v", reset)
	}
}
