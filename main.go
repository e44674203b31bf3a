package main

import "linkdedup/cmd"

func main() {
	cmd.Execute()
}
