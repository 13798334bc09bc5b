package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hitoshi/internlink/internal/model"
	"github.com/hitoshi/internlink/internal/security"
)

func newTestRenderer() (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewRenderer(&buf, security.NewContentSanitizer()), &buf
}

func TestFlattenHTML_BlockBoundariesBecomeNewlines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "段落の境界が空行になる",
			input: "<p>業務内容</p><p>応募要件</p>",
			want:  "業務内容\n\n応募要件",
		},
		{
			name:  "brが改行になる",
			input: "条件1<br>条件2",
			want:  "条件1\n条件2",
		},
		{
			name:  "リスト項目が行になる",
			input: "<ul><li>Go</li><li>SQL</li></ul>",
			want:  "Go\n\nSQL",
		},
		{
			name:  "連続する空行は1つにまとまる",
			input: "<p>A</p><p></p><p></p><p>B</p>",
			want:  "A\n\nB",
		},
		{
			name:  "タグなしテキストはそのまま",
			input: "プレーンテキスト",
			want:  "プレーンテキスト",
		},
		{
			name:  "空入力は空のまま",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlattenHTML(tt.input); got != tt.want {
				t.Errorf("FlattenHTML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderer_InternshipDetail_SanitizesDescription(t *testing.T) {
	r, buf := newTestRenderer()

	in := &model.Internship{
		ID:          7,
		Title:       "Backend Intern",
		Company:     "Example Inc.",
		Description: `<p>Goでの開発</p><script>alert('xss')</script>`,
	}
	r.InternshipDetail(in, false, false)

	out := buf.String()
	if !strings.Contains(out, "Goでの開発") {
		t.Errorf("output missing description text: %q", out)
	}
	if strings.Contains(out, "alert") || strings.Contains(out, "<script") {
		t.Errorf("script content leaked into output: %q", out)
	}
}

func TestRenderer_InternshipDetail_ShowsDerivedState(t *testing.T) {
	r, buf := newTestRenderer()

	in := &model.Internship{ID: 7, Title: "Backend Intern"}
	r.InternshipDetail(in, true, true)

	out := buf.String()
	if !strings.Contains(out, "ブックマーク済み") {
		t.Errorf("output missing bookmark mark: %q", out)
	}
	if !strings.Contains(out, "応募済み") {
		t.Errorf("output missing applied mark: %q", out)
	}
}

func TestRenderer_InternshipList_Empty(t *testing.T) {
	r, buf := newTestRenderer()

	r.InternshipList(nil)

	if !strings.Contains(buf.String(), "該当する求人はありません") {
		t.Errorf("output = %q, want empty list message", buf.String())
	}
}

func TestRenderer_Error_APIError_ShowsMessageFieldErrorsAndAction(t *testing.T) {
	r, buf := newTestRenderer()

	r.Error(model.NewValidationError(map[string][]string{
		"username": {"A user with that username already exists."},
	}))

	out := buf.String()
	if !strings.Contains(out, "入力内容に誤りがあります") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "username: A user with that username already exists.") {
		t.Errorf("output missing field errors: %q", out)
	}
	if !strings.Contains(out, "→") {
		t.Errorf("output missing action hint: %q", out)
	}
}

func TestRenderer_Error_PlainError(t *testing.T) {
	r, buf := newTestRenderer()

	r.Error(errFake)

	if !strings.Contains(buf.String(), "fake failure") {
		t.Errorf("output = %q, want plain error text", buf.String())
	}
}

var errFake = errorString("fake failure")

type errorString string

func (e errorString) Error() string { return string(e) }
