package main

import "github.com/complymap/complymap-cli/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
