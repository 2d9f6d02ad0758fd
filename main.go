package main

import "github.com/papapumpkin/comet/cmd"

func main() {
	cmd.Execute()
}
