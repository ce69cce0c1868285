package main

import "chromepack/internal/cli"

func main() {
	cli.Execute()
}
