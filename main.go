// The main package for the toppicks-crawler executable.
package main

import (
	"github.com/moz-infra/toppicks-crawler/cmd"
)

func main() {
	cmd.Execute()
}
