package main

import "github.com/algotables/Eden-Pods-POC-v3/internal/cli"

func main() {
	cli.Execute()
}
