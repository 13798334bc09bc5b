package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/internlink/internal/model"
)

// AddBookmark は求人をブックマークに追加する。
func (c *Client) AddBookmark(ctx context.Context, internshipID int64) error {
	path := fmt.Sprintf("/bookmarks/%d/add/", internshipID)
	return c.doJSON(ctx, http.MethodPost, path, nil, nil, requestOptions{})
}

// RemoveBookmark は求人をブックマークから削除する。
// ブックマークが存在しない場合はNOT_FOUNDが返る。
func (c *Client) RemoveBookmark(ctx context.Context, internshipID int64) error {
	path := fmt.Sprintf("/bookmarks/%d/remove/", internshipID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, requestOptions{})
}

// ListBookmarks はログイン中ユーザーのブックマーク一覧を取得する。
func (c *Client) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	var bookmarks []model.Bookmark
	if err := c.doJSON(ctx, http.MethodGet, "/bookmarks/list/", nil, &bookmarks, requestOptions{}); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// CheckBookmarked はこの求人をブックマーク済みかどうかを返す。
// クライアント側では永続化せず、画面表示のたびにこのAPIで再導出する。
func (c *Client) CheckBookmarked(ctx context.Context, internshipID int64) (bool, error) {
	var result struct {
		Bookmarked bool `json:"bookmarked"`
	}
	path := fmt.Sprintf("/bookmarks/check/%d/", internshipID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result, requestOptions{}); err != nil {
		return false, err
	}
	return result.Bookmarked, nil
}

// ActivityFilter はアクティビティログの絞り込み条件。ゼロ値のフィールドは送信しない。
type ActivityFilter struct {
	Action    model.ActivityAction
	StartDate *time.Time
	EndDate   *time.Time
}

// ActivityLogs はログイン中ユーザーの操作履歴を取得する。
func (c *Client) ActivityLogs(ctx context.Context, filter ActivityFilter) ([]model.ActivityLog, error) {
	q := url.Values{}
	if filter.Action != "" {
		q.Set("action", string(filter.Action))
	}
	if filter.StartDate != nil {
		q.Set("start_date", filter.StartDate.Format(time.RFC3339))
	}
	if filter.EndDate != nil {
		q.Set("end_date", filter.EndDate.Format(time.RFC3339))
	}

	path := "/activity_logs/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var logs []model.ActivityLog
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &logs, requestOptions{}); err != nil {
		return nil, err
	}
	return logs, nil
}
