package services

import "testing"

func TestIsValidEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"a@b.co", true},
		{"maria.silva+tag@example.com.br", true},
		{"no-at-sign", false},
		{"two@@example.com", false},
		{"spaces in@example.com", false},
		{"missing@tld", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsValidEmail(tc.in); got != tc.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsValidCity(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"São Paulo", true},
		{"São José dos Campos", true},
		{"Foo-Bar", true},
		{"  Recife  ", true},
		{"Foo123", false},
		{"", false},
		{"   ", false},
		{"City!", false},
	}
	for _, tc := range cases {
		if got := IsValidCity(tc.in); got != tc.want {
			t.Errorf("IsValidCity(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsValidPhoneFormat(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"1123456789", true},     // 10 digits
		{"11987654321", true},    // 11 digits
		{"(11) 98765-4321", true},
		{"11 2345-6789", true},
		{"123456789", false},    // 9 digits
		{"119876543210", false}, // 12 digits
		{"", false},
		{"abc", false},
	}
	for _, tc := range cases {
		if got := IsValidPhoneFormat(tc.in); got != tc.want {
			t.Errorf("IsValidPhoneFormat(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"(11) 98765-4321", "11987654321"},
		{"+55 11 98765 4321", "5511987654321"},
		{"11987654321", "11987654321"},
		{"abc", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	// Normalization is idempotent.
	once := NormalizePhone("(11) 98765-4321")
	if NormalizePhone(once) != once {
		t.Errorf("NormalizePhone not idempotent for %q", once)
	}
}
