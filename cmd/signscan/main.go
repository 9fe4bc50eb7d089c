package main

import "github.com/roadwatch-ai/signscan/cmd/signscan/cmd"

func main() {
	cmd.Execute()
}
