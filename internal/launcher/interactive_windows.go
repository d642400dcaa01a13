// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"errors"

	"pybox-cli/internal/container"
)

// launchInteractive is not supported on Windows; PTY allocation requires a
// Unix terminal. Callers should fall back to a plain launch.
func (l *Launcher) launchInteractive(_ context.Context, _ container.RunOptions) (int, error) {
	return -1, errors.New("interactive launch is not supported on windows")
}
