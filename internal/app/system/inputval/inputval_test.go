package inputval

import (
	"testing"
)

type orderInput struct {
	Recipient string `json:"recipient" validate:"required,phone"`
	Amount    string `json:"amount" validate:"required,money"`
	Network   string `json:"network" validate:"notblank"`
}

func TestStruct_Valid(t *testing.T) {
	in := orderInput{Recipient: "+233 24 123 4567", Amount: "12.50", Network: "mtn"}
	if err := Struct(in); err != nil {
		t.Fatalf("Struct() = %v, want nil", err)
	}
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	in := orderInput{Recipient: "abc", Amount: "-3", Network: "   "}
	err := Struct(in)
	if err == nil {
		t.Fatal("expected validation error")
	}
	fields := Fields(err)
	for _, name := range []string{"recipient", "amount", "network"} {
		if fields[name] == "" {
			t.Errorf("missing message for %q in %v", name, fields)
		}
	}
	if got := fields["network"]; got != "network cannot be blank" {
		t.Errorf("network message = %q", got)
	}
}

func TestStruct_RequiredUsesDefaultTranslation(t *testing.T) {
	err := Struct(orderInput{Network: "x"})
	fields := Fields(err)
	if fields["recipient"] != "recipient is a required field" {
		t.Errorf("recipient message = %q", fields["recipient"])
	}
}

func TestStruct_RoleAndYouTube(t *testing.T) {
	type in struct {
		Role  string `json:"role" validate:"role"`
		Video string `json:"video_url" validate:"youtube"`
	}
	if err := Struct(in{Role: "agent", Video: "https://youtu.be/dQw4w9WgXcQ"}); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
	fields := Fields(Struct(in{Role: "wizard", Video: "https://vimeo.com/1"}))
	if fields["role"] == "" || fields["video_url"] == "" {
		t.Errorf("expected role and video_url errors, got %v", fields)
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0241234567", true},
		{"+233 24 123 4567", true},
		{"(024) 123-4567", true},
		{"", false},
		{"12345", false},
		{"phone", false},
		{"+1234567890123456", false},
	}
	for _, tt := range tests {
		if got := IsValidPhone(tt.in); got != tt.want {
			t.Errorf("IsValidPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFields_NonValidationError(t *testing.T) {
	if Fields(nil) != nil {
		t.Error("Fields(nil) should be nil")
	}
}
