package version

import (
	"strings"
	"testing"
)

func TestIsValidBuild(t *testing.T) {
	tests := []struct {
		build string
		valid bool
	}{
		{"", false},
		{"abc-123", true},
		{"RC1", true},
		{"abc.123", false},
		{"abc 123", false},
		{"abc/123", false},
	}
	for _, test := range tests {
		if isValidBuild(test.build) != test.valid {
			t.Errorf("isValidBuild(%q) expected %t", test.build, test.valid)
		}
	}
}

func TestUserAgent(t *testing.T) {
	if UserAgent() != "/calicod:"+Version()+"/" {
		t.Errorf("unexpected user agent %s", UserAgent())
	}
	if UserAgent("simnet", "test") != "/calicod:"+Version()+"(simnet; test)/" {
		t.Errorf("unexpected user agent %s", UserAgent("simnet", "test"))
	}
	if !strings.HasPrefix(String(), "calicod version 0.1.0") {
		t.Errorf("unexpected version string %s", String())
	}
}
