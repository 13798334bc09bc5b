package app

// Command はCLIのサブコマンドを表す。
// 元のWebフロントエンドの各画面に対応する。
type Command string

const (
	// CommandLogin はユーザー名とパスワードでログインする。
	CommandLogin Command = "login"
	// CommandLogout はログアウトする。常に成功する。
	CommandLogout Command = "logout"
	// CommandRegister は新規アカウントを登録する。
	CommandRegister Command = "register"
	// CommandMe はログイン中ユーザーの本人情報を表示する。
	CommandMe Command = "me"
	// CommandProfile はプロフィールを更新する。
	CommandProfile Command = "profile"
	// CommandPasswd はパスワードを変更する。
	CommandPasswd Command = "passwd"
	// CommandForgotPassword はパスワードリセットメールを依頼する。
	CommandForgotPassword Command = "forgot-password"
	// CommandResetPassword はリセットトークンで新しいパスワードを設定する。
	CommandResetPassword Command = "reset-password"

	// CommandInternships は求人一覧を表示する。引数なしのデフォルト。
	CommandInternships Command = "internships"
	// CommandInternship は求人の詳細を表示する。
	CommandInternship Command = "internship"
	// CommandPost は新しい求人を投稿する。採用担当者のみ。
	CommandPost Command = "post"
	// CommandEdit は自分の求人を編集する。採用担当者のみ。
	CommandEdit Command = "edit"
	// CommandDelete は自分の求人を削除する。採用担当者のみ。
	CommandDelete Command = "delete"
	// CommandMine は自分が投稿した求人の一覧を表示する。採用担当者のみ。
	CommandMine Command = "mine"

	// CommandApply は求人に応募する。学生のみ。
	CommandApply Command = "apply"
	// CommandApplications は自分の応募一覧を表示する。学生のみ。
	CommandApplications Command = "applications"
	// CommandApplicants は自分の求人への応募者一覧を表示する。採用担当者のみ。
	CommandApplicants Command = "applicants"
	// CommandDecide は応募の選考状態を更新する。採用担当者のみ。
	CommandDecide Command = "decide"

	// CommandBookmark は求人のブックマークを切り替える。
	CommandBookmark Command = "bookmark"
	// CommandBookmarks はブックマーク一覧を表示する。
	CommandBookmarks Command = "bookmarks"
	// CommandActivity は操作履歴を表示する。
	CommandActivity Command = "activity"
)

// commands はサポートするサブコマンドの集合。
var commands = map[string]Command{
	"login":           CommandLogin,
	"logout":          CommandLogout,
	"register":        CommandRegister,
	"me":              CommandMe,
	"profile":         CommandProfile,
	"passwd":          CommandPasswd,
	"forgot-password": CommandForgotPassword,
	"reset-password":  CommandResetPassword,
	"internships":     CommandInternships,
	"internship":      CommandInternship,
	"post":            CommandPost,
	"edit":            CommandEdit,
	"delete":          CommandDelete,
	"mine":            CommandMine,
	"apply":           CommandApply,
	"applications":    CommandApplications,
	"applicants":      CommandApplicants,
	"decide":          CommandDecide,
	"bookmark":        CommandBookmark,
	"bookmarks":       CommandBookmarks,
	"activity":        CommandActivity,
}

// ParseCommand はコマンドライン引数からサブコマンドと残りの引数を解析する。
// 引数が空またはサポート外のコマンドの場合はCommandInternshipsを返す。
func ParseCommand(args []string) (Command, []string) {
	if len(args) == 0 {
		return CommandInternships, nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return CommandInternships, args
	}
	return cmd, args[1:]
}
