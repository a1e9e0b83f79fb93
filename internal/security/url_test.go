package security

import "testing"

func TestValidateFetchURLBlocksLocalTargets(t *testing.T) {
	tests := []string{
		"http://127.0.0.1/img.png",
		"http://localhost:8080/img.png",
		"http://10.0.0.5/img.png",
		"http://192.168.1.10/img.png",
		"http://[::1]/img.png",
		"http://internal.service.local/img.png",
		"file:///etc/passwd",
		"",
	}

	for _, rawURL := range tests {
		if err := ValidateFetchURL(rawURL); err == nil {
			t.Fatalf("expected SSRF validation to block %q", rawURL)
		}
	}
}

func TestValidateFetchURLRejectsNonHTTPSchemes(t *testing.T) {
	for _, rawURL := range []string{"ftp://example.com/a.png", "gopher://example.com"} {
		if err := ValidateFetchURL(rawURL); err == nil {
			t.Fatalf("expected scheme rejection for %q", rawURL)
		}
	}
}

func TestValidateFetchURLAllowsPublicIPLiteral(t *testing.T) {
	if err := ValidateFetchURL("https://93.184.216.34/img.png"); err != nil {
		t.Fatalf("expected public IP literal to pass, got %v", err)
	}
}
