package session

import "testing"

func TestRedirectPolicyDecisions(t *testing.T) {
	tests := []struct {
		name   string
		policy RedirectPolicy
		path   string
		want   bool
	}{
		{"always root", Always{}, "/", true},
		{"always api", Always{}, "/api/v1", true},
		{"only hit", Only{"/admin", "/app"}, "/admin/users", true},
		{"only exact prefix", Only{"/admin"}, "/admin", true},
		{"only miss", Only{"/admin"}, "/api/users", false},
		{"only empty set", Only{}, "/anything", false},
		{"except hit", Except{"/api"}, "/api/users", false},
		{"except miss", Except{"/api"}, "/admin/users", true},
		{"except empty set", Except{}, "/anything", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.policy.ShouldRedirect(tc.path); got != tc.want {
				t.Fatalf("ShouldRedirect(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestConfigDefaultsToAlways(t *testing.T) {
	var cfg Config
	if !cfg.shouldRedirect("/api/anything") {
		t.Fatalf("nil policy must default to always redirect")
	}
}
