package main

import "github.com/approvalflow/workflow-client/internal/cli"

func main() {
	cli.Execute()
}
