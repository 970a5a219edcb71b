package main

import "github.com/tradingagents/core/cmd"

func main() {
	cmd.Execute()
}
