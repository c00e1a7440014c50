package main

import (
	"github.com/shouni/go-comic-kit/cmd"
)

// main は comic-kit の入口なのだ。
// フラグの解析もコマンドの実行も cmd パッケージに任せているのだよ。
func main() {
	cmd.Execute()
}
