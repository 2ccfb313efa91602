package main

import "github.com/flymate/flymate-go/cmd"

func main() {
	cmd.Execute()
}
