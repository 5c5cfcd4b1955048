package instrument

import (
	"log/slog"
	"strings"
	"testing"
)

func TestBuildMaskKeysAlwaysIncludesCredentials(t *testing.T) {
	keys := buildMaskKeys([]string{" Email "})

	for _, want := range []string{"password", "new_password", "otp", "email"} {
		if _, ok := keys[want]; !ok {
			t.Fatalf("expected %q in mask keys %v", want, keys)
		}
	}
}

func TestMaskAttrMasksNestedOTP(t *testing.T) {
	keys := buildMaskKeys(nil)

	attr := maskAttr(slog.Any("payload", map[string]any{"otp": "042613", "email": "a@x.com"}), keys)

	data, ok := attr.Value.Any().(map[string]any)
	if !ok {
		t.Fatalf("expected map payload, got %T", attr.Value.Any())
	}
	if data["otp"] != "***" {
		t.Fatalf("otp must be masked, got %v", data["otp"])
	}
	if data["email"] != "a@x.com" {
		t.Fatalf("email should pass through, got %v", data["email"])
	}
}

func TestMaskAttrMasksJSONStringPayload(t *testing.T) {
	keys := buildMaskKeys(nil)

	attr := maskAttr(slog.String("body", `{"password":"Sup3rSecret!","name":"Jamie"}`), keys)

	masked := attr.Value.String()
	if strings.Contains(masked, "Sup3rSecret!") {
		t.Fatalf("password leaked into %q", masked)
	}
	if !strings.Contains(masked, "Jamie") {
		t.Fatalf("non-sensitive field dropped from %q", masked)
	}
}
