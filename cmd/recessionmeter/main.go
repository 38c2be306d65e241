package main

import (
	"recession-meter/internal/cli"
)

func main() {
	cli.Execute()
}
