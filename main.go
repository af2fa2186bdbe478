package main

import "github.com/framelab/annotation-service/internal/cli"

func main() {
	cli.Execute()
}
