package main

import "github.com/outfitter-dev/skillset/cmd"

func main() {
	cmd.Execute()
}
