package main

import "github.com/upb/logistics-assistant/internal/cli"

func main() {
	cli.Execute()
}
