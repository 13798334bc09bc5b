package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/internlink/internal/model"
)

// Apply は求人への応募を作成する。学生のみ。
// 重複応募等はフィールド単位のバリデーションエラーとして返る。
func (c *Client) Apply(ctx context.Context, internshipID int64) error {
	path := fmt.Sprintf("/applications/apply/%d/", internshipID)
	return c.doJSON(ctx, http.MethodPost, path, struct{}{}, nil, requestOptions{})
}

// MyApplications はログイン中の学生の応募一覧を取得する。
func (c *Client) MyApplications(ctx context.Context) ([]model.Application, error) {
	var applications []model.Application
	if err := c.doJSON(ctx, http.MethodGet, "/applications/mine/", nil, &applications, requestOptions{}); err != nil {
		return nil, err
	}
	return applications, nil
}

// Applicants は自分の求人への応募一覧を取得する。採用担当者のみ。
func (c *Client) Applicants(ctx context.Context, internshipID int64) ([]model.Application, error) {
	var applications []model.Application
	path := fmt.Sprintf("/internships/%d/applicants/", internshipID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &applications, requestOptions{}); err != nil {
		return nil, err
	}
	return applications, nil
}

// UpdateApplicationStatus は応募の選考状態を更新する。採用担当者のみ。
func (c *Client) UpdateApplicationStatus(ctx context.Context, applicationID int64, status model.ApplicationStatus) error {
	payload := map[string]model.ApplicationStatus{"status": status}
	path := fmt.Sprintf("/applications/%d/status/", applicationID)
	return c.doJSON(ctx, http.MethodPatch, path, payload, nil, requestOptions{})
}

// CheckApplied はログイン中の学生がこの求人に応募済みかどうかを返す。
// クライアント側では永続化せず、画面表示のたびにこのAPIで再導出する。
func (c *Client) CheckApplied(ctx context.Context, internshipID int64) (bool, error) {
	var result struct {
		Applied bool `json:"applied"`
	}
	path := fmt.Sprintf("/applications/check/%d/", internshipID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result, requestOptions{}); err != nil {
		return false, err
	}
	return result.Applied, nil
}
