// Package model はドメインモデルを定義する。
package model

import "time"

// InternshipStatus は求人の公開状態を表す。
type InternshipStatus string

const (
	// InternshipOpen は応募受付中の求人を示す。
	InternshipOpen InternshipStatus = "open"
	// InternshipClosed は受付終了した求人を示す。
	InternshipClosed InternshipStatus = "closed"
	// InternshipArchived はアーカイブ済みの求人を示す。
	InternshipArchived InternshipStatus = "archived"
)

// Internship はインターンシップ求人を表す。
// クライアント側では読み取り専用のレコードとして扱い、取得したまま表示する。
type Internship struct {
	ID             int64            `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Company        string           `json:"company"`
	Location       string           `json:"location"`
	Stipend        *int64           `json:"stipend"`
	InternshipType string           `json:"internship_type"`
	ApplyLink      *string          `json:"apply_link"`
	PostedOn       time.Time        `json:"posted_on"`
	Status         InternshipStatus `json:"status"`
	ExpiryDate     *time.Time       `json:"expiry_date"`
	RecruiterID    int64            `json:"recruiter"`
	TechStack      []string         `json:"tech_stack,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
}

// ApplicationStatus は応募の選考状態を表す。
type ApplicationStatus string

const (
	// ApplicationPending は選考中の応募を示す。
	ApplicationPending ApplicationStatus = "pending"
	// ApplicationAccepted は承諾された応募を示す。
	ApplicationAccepted ApplicationStatus = "accepted"
	// ApplicationRejected は不採用となった応募を示す。
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application は学生から求人への応募を表す。
type Application struct {
	ID         int64             `json:"id"`
	User       Identity          `json:"user"`
	Internship Internship        `json:"internship"`
	Status     ApplicationStatus `json:"status"`
	AppliedOn  time.Time         `json:"applied_on"`
	Resume     *string           `json:"resume"`
}

// Bookmark はユーザーによる求人のブックマークを表す。
// 「ブックマーク済みか」というブール値の関係はクライアント側では永続化せず、
// 画面遷移のたびにチェックAPIで再導出する。
type Bookmark struct {
	ID                 int64     `json:"id"`
	InternshipID       int64     `json:"internship"`
	InternshipTitle    string    `json:"internship_title"`
	InternshipCompany  string    `json:"internship_company"`
	InternshipLocation string    `json:"internship_location"`
	BookmarkedOn       time.Time `json:"bookmarked_on"`
}

// ActivityAction はアクティビティログのアクション種別を表す。
type ActivityAction string

const (
	ActionInternshipPosted         ActivityAction = "internship_posted"
	ActionInternshipUpdated        ActivityAction = "internship_updated"
	ActionInternshipDeleted        ActivityAction = "internship_deleted"
	ActionApplicationSubmitted     ActivityAction = "application_submitted"
	ActionApplicationStatusChanged ActivityAction = "application_status_changed"
	ActionApplicationWithdrawn     ActivityAction = "application_withdrawn"
	ActionBookmarkAdded            ActivityAction = "bookmark_added"
	ActionBookmarkRemoved          ActivityAction = "bookmark_removed"
	ActionProfileUpdated           ActivityAction = "profile_updated"
	ActionProfilePictureUpdated    ActivityAction = "profile_picture_updated"
	ActionLogin                    ActivityAction = "login"
	ActionLogout                   ActivityAction = "logout"
	ActionPasswordChanged          ActivityAction = "password_changed"
)

// ActivityLog はユーザーの操作履歴1件を表す。
type ActivityLog struct {
	ID              int64          `json:"id"`
	Action          ActivityAction `json:"action"`
	RelatedObjectID *int64         `json:"related_object_id"`
	Timestamp       time.Time      `json:"timestamp"`
	Details         string         `json:"details,omitempty"`
}
