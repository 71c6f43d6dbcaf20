package main

import "github.com/srthuanan/stockhold/cmd"

func main() {
	cmd.Execute()
}
