package main

import "github.com/nfrund/hexgames/cmd/hexgames-cli/cmd"

func main() {
	cmd.Execute()
}
