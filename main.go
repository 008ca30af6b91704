package main

import "github.com/itsmostafa/doc2html/cmd"

func main() {
	cmd.Execute()
}
