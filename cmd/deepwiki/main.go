// Command deepwiki indexes a repository, generates its wiki, and answers
// questions about it, either from the terminal or as an MCP server over
// stdio.
package main

import "github.com/deepwiki-go/deepwiki/internal/cli"

func main() {
	cli.Execute()
}
