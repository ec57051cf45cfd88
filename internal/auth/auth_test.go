package auth

import "testing"

func TestStaticValidator(t *testing.T) {
	testCases := []struct {
		name       string
		configured string
		presented  string
		want       bool
	}{
		{"matching key", "secret-key", "secret-key", true},
		{"wrong key", "secret-key", "other-key", false},
		{"empty presented key", "secret-key", "", false},
		{"prefix is not enough", "secret-key", "secret", false},
		{"empty configured key fails closed", "", "anything", false},
		{"both empty still fails", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewStaticValidator(tc.configured)
			if got := v.Validate(tc.presented); got != tc.want {
				t.Errorf("Validate(%q) = %v, want %v", tc.presented, got, tc.want)
			}
		})
	}
}
