package main

import (
	"context"
	"playconsole-backend/cmd/playconsole-cli/commands"
	"playconsole-backend/pkg/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext(context.Background())
	commands.ExecuteContext(ctx)
}
