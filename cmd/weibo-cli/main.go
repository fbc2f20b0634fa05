package main

import (
	"weibo-analysis/cmd/weibo-cli/commands"
	"weibo-analysis/internal/components/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
