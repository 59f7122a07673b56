package main

import "bookgenre/cmd"

func main() {
	cmd.Execute()
}
