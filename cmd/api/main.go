package main

import "github.com/SergeiKhy/shorturls/internal/cli"

func main() {
	cli.Execute()
}
