package main

import "github.com/seo-optimizer/opportunity/cmd"

func main() {
	cmd.Execute()
}
