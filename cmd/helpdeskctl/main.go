package main

import "github.com/deskflow/helpdesk/internal/cli"

func main() {
	cli.Execute()
}
