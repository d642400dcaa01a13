// SPDX-License-Identifier: MPL-2.0

// pybox packages a Python source tree into a container image and launches
// containers from it.
package main

import cmd "pybox-cli/cmd/pybox"

func main() {
	cmd.Execute()
}
