package main

import "accessterm/cmd/terminal/cmd"

func main() {
	cmd.Execute()
}
