package security

import (
	"strings"
	"testing"
	"time"
)

func newTestFetcher(t *testing.T) AssetFetcherService {
	t.Helper()
	return NewAssetFetcher(t.TempDir(), 5*time.Second, 1<<20)
}

// TestValidateURL_PublicURL は公開URLの検証が成功することをテストする。
func TestValidateURL_PublicURL(t *testing.T) {
	fetcher := newTestFetcher(t)

	publicURLs := []string{
		"https://example.com/media/avatar.png",
		"https://cdn.example.org/profiles/1.jpg",
		"http://static.example.net/logo.png",
	}

	for _, u := range publicURLs {
		t.Run(u, func(t *testing.T) {
			if err := fetcher.ValidateURL(u); err != nil {
				t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
			}
		})
	}
}

// TestValidateURL_Rejected は危険なURLが拒否されることをテストする。
func TestValidateURL_Rejected(t *testing.T) {
	fetcher := newTestFetcher(t)

	tests := []struct {
		name string
		url  string
	}{
		{"空URL", ""},
		{"fileスキーム", "file:///etc/passwd"},
		{"ftpスキーム", "ftp://example.com/file"},
		{"ホストなし", "https:///path"},
		{"localhost", "http://localhost/admin"},
		{"ループバックIP", "http://127.0.0.1/secret"},
		{"リンクローカルIP", "http://169.254.169.254/latest/meta-data/"},
		{"プライベートIP 10系", "http://10.0.0.1/internal"},
		{"プライベートIP 192.168系", "http://192.168.1.1/router"},
		{"プライベートIP 172.16系", "http://172.16.0.1/"},
		{"IPv6ループバック", "http://[::1]/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := fetcher.ValidateURL(tt.url); err == nil {
				t.Errorf("ValidateURL(%q) = nil, want error", tt.url)
			}
		})
	}
}

// TestFetchToFile_InvalidURL は検証に失敗するURLでフェッチが行われないことをテストする。
func TestFetchToFile_InvalidURL(t *testing.T) {
	fetcher := newTestFetcher(t)

	if _, err := fetcher.FetchToFile("http://127.0.0.1/avatar.png"); err == nil {
		t.Fatal("FetchToFile succeeded for a loopback URL, want error")
	}
}

// TestFetchToFile_LoopbackBlockedByClient はsafeurlクライアント側でも
// ループバックへの接続がブロックされることをテストする。
// httptestサーバーは127.0.0.1で起動されるため、静的検証・Dialer検証の両方が拒否する。
func TestFetchToFile_LoopbackBlockedByClient(t *testing.T) {
	fetcher := newTestFetcher(t)

	_, err := fetcher.FetchToFile("http://127.0.0.1:8080/avatar.png")
	if err == nil {
		t.Fatal("expected error for loopback fetch, got nil")
	}
	if !strings.Contains(err.Error(), "blocked") {
		t.Errorf("error = %v, want blocked IP error", err)
	}
}
