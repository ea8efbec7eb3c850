package main

import (
	"github.com/spawnguard/spawnguard/internal/cli"
)

func main() {
	cli.Execute()
}
