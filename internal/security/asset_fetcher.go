// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/google/uuid"
)

// AssetFetcherService は外部リソース取得機能のインターフェースを定義する。
// プロフィール画像のダウンロードと外部応募リンクの事前検証に使用される。
// 取得先URLはバックエンドのレコード由来（= 第三者が入力した値）であるため、
// プライベートIPやメタデータIPへのアクセスをブロックする。
type AssetFetcherService interface {
	// ValidateURL はURLの安全性を事前に検証する。
	// スキーム、ホスト、IPアドレスの検証を行い、危険なURLの場合はエラーを返す。
	ValidateURL(rawURL string) error

	// FetchToFile はURLの内容をキャッシュディレクトリ配下のファイルへ保存し、
	// 保存先パスを返す。レスポンスサイズはmaxSizeで制限される。
	FetchToFile(rawURL string) (string, error)
}

// allowedSchemes は外部リソース取得で許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// blockedNetworks はブロックされるネットワーク範囲。
// パッケージ初期化時に1回だけパースし、ValidateURLでの検証に使用する。
// safeurlはnet.DialerレベルでDNS解決後のIPアドレスも検証するため、
// DNS再バインディング攻撃にも対応している。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		// プライベートIPアドレス (RFC 1918)
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		// ループバック (RFC 1122)
		"127.0.0.0/8",
		// リンクローカル (RFC 3927) - クラウドメタデータIP (169.254.169.254) を含む
		"169.254.0.0/16",
		// カレントネットワーク
		"0.0.0.0/8",
		// IPv6ループバック
		"::1/128",
		// IPv6リンクローカル
		"fe80::/10",
		// IPv6ユニークローカル
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// assetFetcher はAssetFetcherServiceの実装。
type assetFetcher struct {
	client   *http.Client
	cacheDir string
	maxSize  int64
}

// NewAssetFetcher はAssetFetcherServiceの新しいインスタンスを生成する。
// safeurlのラップしたHTTPクライアントにより、プライベートIP、ループバック、
// リンクローカル、メタデータIPへのリクエストが自動的にブロックされる。
func NewAssetFetcher(cacheDir string, timeout time.Duration, maxSize int64) *assetFetcher {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return &assetFetcher{
		client:   safeurl.Client(config).Client,
		cacheDir: cacheDir,
		maxSize:  maxSize,
	}
}

// ValidateURL はURLの安全性を事前に検証する。
// DNS解決を伴わない静的な検証のみを行う。DNS再バインディング攻撃は
// safeurlクライアント側のDialer検証で防止される。
func (f *assetFetcher) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// スキーム検証: http/httpsのみ許可
	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes)
	}

	// ホスト検証: 空ホストを拒否
	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	// IPアドレスの場合: ブロック対象CIDRとの照合
	ip := net.ParseIP(host)
	if ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	// ホスト名の場合: localhost等の危険なホスト名を拒否
	if isBlockedHostname(host) {
		return fmt.Errorf("blocked host: %s", host)
	}

	return nil
}

// FetchToFile はURLの内容をキャッシュディレクトリ配下のファイルへ保存する。
func (f *assetFetcher) FetchToFile(rawURL string) (string, error) {
	if err := f.ValidateURL(rawURL); err != nil {
		return "", err
	}

	resp, err := f.client.Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("asset fetch returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(f.cacheDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create asset cache directory: %w", err)
	}

	name := uuid.New().String() + filepath.Ext(strings.TrimRight(rawURL, "/"))
	path := filepath.Join(f.cacheDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create asset file: %w", err)
	}
	defer out.Close()

	// サイズ上限を超えた分は読まない
	limited := io.LimitReader(resp.Body, f.maxSize+1)
	n, err := io.Copy(out, limited)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write asset file: %w", err)
	}
	if n > f.maxSize {
		os.Remove(path)
		return "", fmt.Errorf("asset exceeds maximum size of %d bytes", f.maxSize)
	}

	return path, nil
}

// isAllowedScheme はURLスキームが許可リストに含まれるかを検証する。
func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isBlockedIP はIPアドレスがブロック対象ネットワークに含まれるかを検証する。
func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// isBlockedHostname は危険なホスト名かどうかを検証する。
func isBlockedHostname(host string) bool {
	lower := strings.ToLower(host)
	return lower == "localhost" || strings.HasSuffix(lower, ".localhost") ||
		strings.HasSuffix(lower, ".local") || strings.HasSuffix(lower, ".internal")
}
