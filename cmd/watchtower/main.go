package main

import "github.com/vnquant/watchtower/internal/cli"

func main() {
	cli.Execute()
}
