package main

import "github.com/rustyeddy/torb/internal/cli"

func main() {
	cli.Execute()
}
