package main

import (
	"github.com/kevinboone/pi-servo/cmd"
)

func main() {
	cmd.Execute()
}
