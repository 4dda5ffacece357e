package main

import "github.com/wizenheimer/tripwire/internal/cli"

func main() {
	cli.Execute()
}
