// Package ui は端末向けの画面描画と画面状態の管理を提供する。
// バックエンド由来のHTMLはサニタイズしてからプレーンテキストへ変換して表示する。
package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/hitoshi/internlink/internal/model"
	"github.com/hitoshi/internlink/internal/security"
)

// Renderer はドメインレコードを端末テキストとして描画する。
type Renderer struct {
	out       io.Writer
	sanitizer security.ContentSanitizerService
}

// NewRenderer はRendererを生成する。
func NewRenderer(out io.Writer, sanitizer security.ContentSanitizerService) *Renderer {
	return &Renderer{
		out:       out,
		sanitizer: sanitizer,
	}
}

// FlattenHTML はサニタイズ済みHTMLをプレーンテキストへ変換する。
// ブロック要素の境界は改行に置き換え、連続する空行は1つにまとめる。
func FlattenHTML(sanitized string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(sanitized))
	var b strings.Builder

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return collapseBlankLines(strings.TrimSpace(b.String()))
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "br", "p", "li", "ul", "ol", "blockquote", "pre":
				b.WriteByte('\n')
			}
		}
	}
}

// collapseBlankLines は連続する空行を1つにまとめる。
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

// text はバックエンド由来のHTML文字列を表示用テキストへ変換する。
func (r *Renderer) text(raw string) string {
	return FlattenHTML(r.sanitizer.Sanitize(raw))
}

// Identity は本人情報を描画する。
func (r *Renderer) Identity(identity *model.Identity) {
	fmt.Fprintf(r.out, "%s (@%s)\n", identity.DisplayName(), identity.Username)
	fmt.Fprintf(r.out, "  Email:    %s\n", identity.Email)
	fmt.Fprintf(r.out, "  Role:     %s\n", identity.Profile.Role)
	if identity.Profile.Location != "" {
		fmt.Fprintf(r.out, "  Location: %s\n", identity.Profile.Location)
	}
	if identity.Profile.Bio != "" {
		fmt.Fprintf(r.out, "  Bio:      %s\n", r.text(identity.Profile.Bio))
	}
}

// InternshipList は求人一覧を描画する。
func (r *Renderer) InternshipList(internships []model.Internship) {
	if len(internships) == 0 {
		fmt.Fprintln(r.out, "該当する求人はありません。")
		return
	}
	for _, in := range internships {
		stipend := "非公開"
		if in.Stipend != nil {
			stipend = fmt.Sprintf("%d", *in.Stipend)
		}
		fmt.Fprintf(r.out, "#%d  %s / %s (%s) [%s] 給与: %s\n",
			in.ID, in.Title, in.Company, in.Location, in.Status, stipend)
	}
}

// InternshipDetail は求人詳細を描画する。
// bookmarked/appliedはサーバーから再導出した（または楽観的に予測された）現在値。
func (r *Renderer) InternshipDetail(in *model.Internship, bookmarked, applied bool) {
	fmt.Fprintf(r.out, "#%d  %s\n", in.ID, in.Title)
	fmt.Fprintf(r.out, "  会社:   %s\n", in.Company)
	fmt.Fprintf(r.out, "  勤務地: %s\n", in.Location)
	fmt.Fprintf(r.out, "  形態:   %s\n", in.InternshipType)
	fmt.Fprintf(r.out, "  状態:   %s\n", in.Status)
	fmt.Fprintf(r.out, "  掲載日: %s\n", in.PostedOn.Format("2006-01-02"))
	if in.ExpiryDate != nil {
		fmt.Fprintf(r.out, "  期限:   %s\n", in.ExpiryDate.Format("2006-01-02"))
	}
	if in.ApplyLink != nil && *in.ApplyLink != "" {
		fmt.Fprintf(r.out, "  外部応募リンク: %s\n", *in.ApplyLink)
	}
	fmt.Fprintf(r.out, "  説明:\n%s\n", indent(r.text(in.Description), "    "))

	marks := []string{}
	if bookmarked {
		marks = append(marks, "ブックマーク済み")
	}
	if applied {
		marks = append(marks, "応募済み")
	}
	if len(marks) > 0 {
		fmt.Fprintf(r.out, "  [%s]\n", strings.Join(marks, " / "))
	}
}

// Bookmarks はブックマーク一覧を描画する。
func (r *Renderer) Bookmarks(bookmarks []model.Bookmark) {
	if len(bookmarks) == 0 {
		fmt.Fprintln(r.out, "ブックマークはありません。")
		return
	}
	for _, b := range bookmarks {
		fmt.Fprintf(r.out, "#%d  %s / %s (%s) 追加日: %s\n",
			b.InternshipID, b.InternshipTitle, b.InternshipCompany,
			b.InternshipLocation, b.BookmarkedOn.Format("2006-01-02"))
	}
}

// Applications は応募一覧を描画する。
func (r *Renderer) Applications(applications []model.Application) {
	if len(applications) == 0 {
		fmt.Fprintln(r.out, "応募はありません。")
		return
	}
	for _, a := range applications {
		fmt.Fprintf(r.out, "#%d  %s / %s [%s] 応募日: %s\n",
			a.ID, a.Internship.Title, a.Internship.Company,
			a.Status, a.AppliedOn.Format("2006-01-02"))
	}
}

// ActivityLogs は操作履歴を描画する。
func (r *Renderer) ActivityLogs(logs []model.ActivityLog) {
	if len(logs) == 0 {
		fmt.Fprintln(r.out, "アクティビティはありません。")
		return
	}
	for _, l := range logs {
		fmt.Fprintf(r.out, "%s  %s", l.Timestamp.Format("2006-01-02 15:04"), l.Action)
		if l.RelatedObjectID != nil {
			fmt.Fprintf(r.out, " (#%d)", *l.RelatedObjectID)
		}
		if l.Details != "" {
			fmt.Fprintf(r.out, " %s", l.Details)
		}
		fmt.Fprintln(r.out)
	}
}

// Error はAPIエラーをユーザー向けメッセージとして描画する。
// 失敗は必ずメッセージとして表示し、黙って握りつぶさない。
func (r *Renderer) Error(err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(r.out, "エラー: %s\n", apiErr.Message)
		if joined := apiErr.JoinedFieldErrors(); joined != "" {
			fmt.Fprintln(r.out, indent(joined, "  "))
		}
		if apiErr.Action != "" {
			fmt.Fprintf(r.out, "  → %s\n", apiErr.Action)
		}
		return
	}
	fmt.Fprintf(r.out, "エラー: %v\n", err)
}

// Message は汎用メッセージを描画する。
func (r *Renderer) Message(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// indent は各行の先頭にプレフィックスを付与する。
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
