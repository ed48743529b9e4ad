package main

import "github.com/iksnae/vedit-session/cmd"

func main() {
	cmd.Execute()
}
