package main

import "github.com/sadopc/traetodo/internal/cli"

func main() {
	cli.Execute()
}
