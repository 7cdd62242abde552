package config

import "testing"

func TestResolveEndpointForDocker_OutsideDocker(t *testing.T) {
	// Unit environments are not containers with /.dockerenv, so URLs pass
	// through untouched.
	if IsRunningInDocker() {
		t.Skip("test environment is a Docker container")
	}

	urls := []string{
		"http://localhost:11434/v1",
		"http://127.0.0.1:8080",
		"https://api.openai.com/v1",
		"",
	}
	for _, u := range urls {
		if got := ResolveEndpointForDocker(u); got != u {
			t.Errorf("ResolveEndpointForDocker(%q) = %q, want unchanged", u, got)
		}
	}
}

func TestIsRunningInDocker_Cached(t *testing.T) {
	first := IsRunningInDocker()
	second := IsRunningInDocker()
	if first != second {
		t.Error("IsRunningInDocker should return a stable cached result")
	}
}
