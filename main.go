package main

import "github.com/samuelfneumann/baselines/cmd"

func main() {
	cmd.Execute()
}
