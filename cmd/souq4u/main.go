package main

import "github.com/aquadic/souq4u/cmd/souq4u/cmd"

func main() {
	cmd.Execute()
}
