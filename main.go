package main

import "github.com/rapidpro/relayd/cmd"

func main() {
	cmd.Execute()
}
