package main

import "bookextract/cmd"

func main() {
	cmd.Execute()
}
