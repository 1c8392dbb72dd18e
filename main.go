package main

import "github.com/truemediaorg/catbot/cmd"

func main() {
	cmd.Execute()
}
