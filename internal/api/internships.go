package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/internlink/internal/model"
)

// InternshipFilter は求人一覧の検索・絞り込み条件。ゼロ値のフィールドは送信しない。
type InternshipFilter struct {
	Search       string     // タイトル・説明・勤務地・会社名・形態の横断検索
	Location     string     // 勤務地の部分一致
	Type         string     // 形態の完全一致
	StipendMin   *int64     // 給与の下限
	StipendMax   *int64     // 給与の上限
	PostedAfter  *time.Time // 掲載日の下限
	PostedBefore *time.Time // 掲載日の上限
	Ordering     string     // 並び順: posted_on, stipend（先頭に-で降順）
}

// query はフィルタをクエリ文字列に変換する。
func (f InternshipFilter) query() string {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Location != "" {
		q.Set("location__icontains", f.Location)
	}
	if f.Type != "" {
		q.Set("internship_type", f.Type)
	}
	if f.StipendMin != nil {
		q.Set("stipend__gte", strconv.FormatInt(*f.StipendMin, 10))
	}
	if f.StipendMax != nil {
		q.Set("stipend__lte", strconv.FormatInt(*f.StipendMax, 10))
	}
	if f.PostedAfter != nil {
		q.Set("posted_on__gte", f.PostedAfter.Format(time.RFC3339))
	}
	if f.PostedBefore != nil {
		q.Set("posted_on__lte", f.PostedBefore.Format(time.RFC3339))
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}

	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListInternships は公開求人一覧を取得する。認証不要。
func (c *Client) ListInternships(ctx context.Context, filter InternshipFilter) ([]model.Internship, error) {
	var internships []model.Internship
	path := "/internships/" + filter.query()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &internships, requestOptions{skipAuth: true}); err != nil {
		return nil, err
	}
	return internships, nil
}

// GetInternship は求人1件の詳細を取得する。認証不要。
func (c *Client) GetInternship(ctx context.Context, id int64) (*model.Internship, error) {
	var internship model.Internship
	path := fmt.Sprintf("/internships/%d/view/", id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &internship, requestOptions{skipAuth: true}); err != nil {
		return nil, err
	}
	return &internship, nil
}

// InternshipDraft は求人の作成・更新ペイロード。
type InternshipDraft struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Stipend        *int64   `json:"stipend,omitempty"`
	InternshipType string   `json:"internship_type"`
	ApplyLink      *string  `json:"apply_link,omitempty"`
	ExpiryDate     *string  `json:"expiry_date,omitempty"`
	TechStack      []string `json:"tech_stack,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// CreateInternship は新しい求人を投稿する。採用担当者のみ。
func (c *Client) CreateInternship(ctx context.Context, draft InternshipDraft) (*model.Internship, error) {
	var internship model.Internship
	if err := c.doJSON(ctx, http.MethodPost, "/internships/create/", draft, &internship, requestOptions{}); err != nil {
		return nil, err
	}
	return &internship, nil
}

// UpdateInternship は自分の求人を部分更新する。
func (c *Client) UpdateInternship(ctx context.Context, id int64, draft InternshipDraft) (*model.Internship, error) {
	var internship model.Internship
	path := fmt.Sprintf("/internships/%d/edit/", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, draft, &internship, requestOptions{}); err != nil {
		return nil, err
	}
	return &internship, nil
}

// DeleteInternship は自分の求人を削除する。
func (c *Client) DeleteInternship(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/internships/%d/edit/", id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, requestOptions{})
}

// MyInternships はログイン中の採用担当者が投稿した求人一覧を取得する。
func (c *Client) MyInternships(ctx context.Context) ([]model.Internship, error) {
	var internships []model.Internship
	if err := c.doJSON(ctx, http.MethodGet, "/internships/mine/", nil, &internships, requestOptions{}); err != nil {
		return nil, err
	}
	return internships, nil
}
