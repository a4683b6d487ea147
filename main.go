// Package main is the entry point for the docmig CLI.
package main

import "docmig.dev/pkg/docmig/cmd"

func main() {
	cmd.Execute()
}
