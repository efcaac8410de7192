package main

import (
	"example.com/fleetops/services/scheduler/cmd"
)

func main() {
	cmd.Execute()
}
