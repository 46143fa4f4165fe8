package main

import "vexere-pipeline/commands"

func main() {
	commands.Execute()
}
