package main

import "phpmetrics/cmd"

func main() {
	cmd.Execute()
}
