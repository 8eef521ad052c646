package gpu

import (
	"log/slog"

	"github.com/gogpu/mandel"
)

// slogger returns the shared module logger.
// All logging in internal/gpu goes through this function.
func slogger() *slog.Logger { return mandel.Logger() }
