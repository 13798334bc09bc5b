// Package model はドメインモデルを定義する。
package model

// Role はユーザーの役割を表す。登録時に確定し、以後変更されない。
type Role string

const (
	// RoleStudent は学生ユーザーを示す。
	RoleStudent Role = "student"
	// RoleRecruiter は採用担当者ユーザーを示す。
	RoleRecruiter Role = "recruiter"
)

// Valid はRoleが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleRecruiter
}

// Profile はユーザーに紐付くプロフィール情報を表す。
// Roleは登録時にサーバー側で設定され、プロフィール更新では変更できない。
type Profile struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Bio            string  `json:"bio"`
	Location       string  `json:"location"`
	ProfilePicture *string `json:"profile_picture"`
	Role           Role    `json:"role"`
}

// Identity は認証済みユーザーの本人情報を表す。
// 認証成功後にGET /me/で取得し、プロフィール編集時は全体を置き換える（部分マージしない）。
type Identity struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Profile  Profile `json:"profile"`
}

// DisplayName は表示用の氏名を返す。姓名が未設定の場合はユーザー名を返す。
func (u *Identity) DisplayName() string {
	var first, last string
	if u.Profile.FirstName != nil {
		first = *u.Profile.FirstName
	}
	if u.Profile.LastName != nil {
		last = *u.Profile.LastName
	}

	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	default:
		return u.Username
	}
}
