package main

import "github.com/artscout/artscout/internal/cli"

func main() {
	cli.Execute()
}
