package main

import (
	"fbs-backend/cmd/fbs-cli/commands"
	"fbs-backend/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
