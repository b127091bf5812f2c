package main

import "github.com/nv0110/bosstracker/cmd"

func main() {
	cmd.Execute()
}
