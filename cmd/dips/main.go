package main

import "github.com/forPelevin/dips/internal/cli"

func main() {
	cli.Main()
}
