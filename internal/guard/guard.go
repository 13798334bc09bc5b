// Package guard は画面遷移の可否判定を提供する。
// 判定は純粋関数であり副作用を持たない。実際の遷移は呼び出し側が行う。
package guard

import (
	"slices"

	"github.com/hitoshi/internlink/internal/model"
	"github.com/hitoshi/internlink/internal/session"
)

// Decision は保護された画面への遷移判定の結果を表す。
type Decision int

const (
	// Allow は表示を許可する。
	Allow Decision = iota
	// RedirectToLogin はログイン画面への誘導を指示する。
	RedirectToLogin
	// RedirectToHome はホーム画面への誘導を指示する。
	RedirectToHome
)

// String はDecisionの文字列表現を返す。
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	default:
		return "redirect_to_home"
	}
}

// Decide はセッション状態と許可された役割の集合から遷移判定を行う。
//
// 判定順序:
//  1. Authenticated以外（Authenticating含む）→ RedirectToLogin
//  2. allowedRolesが指定されており役割が含まれない → RedirectToHome
//  3. それ以外 → Allow
//
// allowedRolesがnil（または空）の場合は認証済みであれば役割を問わない。
// 同じ入力に対して常に同じ判定を返す（冪等）。
func Decide(s session.Snapshot, allowedRoles []model.Role) Decision {
	if s.State != session.StateAuthenticated || s.Identity == nil {
		return RedirectToLogin
	}

	if len(allowedRoles) > 0 && !slices.Contains(allowedRoles, s.Identity.Profile.Role) {
		return RedirectToHome
	}

	return Allow
}
