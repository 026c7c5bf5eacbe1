package main

import "github.com/mt4110/split-video/cmd"

func main() {
	cmd.Execute()
}
