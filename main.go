package main

import "mail-assistant/cmd/cli"

func main() {
	cli.Execute()
}
