package main

import "github.com/boddenberg/br-lookup-go/internal/cli"

func main() {
	cli.Execute()
}
