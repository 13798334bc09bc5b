package main

import (
	"os"

	"github.com/hitoshi/internlink/internal/app"
)

// ログは標準エラーへ、画面描画は標準出力へ分離する。
// エラーの表示はapp.Runが一度だけ行うため、ここでは終了コードのみ決める。
func main() {
	if err := app.Run(os.Stderr, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
