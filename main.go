// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/emreozcan/omoritr-installer/cmd/omoritr"

func main() {
	cmd.Execute()
}
