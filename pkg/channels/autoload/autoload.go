// Package autoload 匯入所有內建 frontend 以觸發其 init() 註冊。
package autoload

import (
	_ "parley/pkg/channels/console"
	_ "parley/pkg/channels/telegram"
)
