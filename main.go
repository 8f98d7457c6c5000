package main

import "github.com/marloch/vinyl/internal/cli"

func main() {
	cli.Execute()
}
