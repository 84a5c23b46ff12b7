package root

import (
	"github.com/vcp-platform/vcp-backend/apps/cli/cmd/bootstrap"
	"github.com/vcp-platform/vcp-backend/apps/cli/cmd/sweepcmd"
	"github.com/vcp-platform/vcp-backend/apps/cli/cmd/token"
)

func init() {
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(sweepcmd.Command())
	Root().AddCommand(token.Command())
}
