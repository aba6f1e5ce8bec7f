package main

import (
	"crypto-signal-watch/internal/cli"
)

func main() {
	cli.Execute()
}
