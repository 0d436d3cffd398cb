package main

import "clip-curator/cmd"

func main() {
	cmd.Execute()
}
