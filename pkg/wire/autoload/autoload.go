// Package autoload 匯入所有內建 provider 以觸發其 init() 註冊。
// main 只需 blank import 本套件即可使用全部 provider。
package autoload

import (
	_ "parley/pkg/wire/gemini"
	_ "parley/pkg/wire/geminigen"
	_ "parley/pkg/wire/ollamachat"
	_ "parley/pkg/wire/openaichat"
)
