package main

import (
	_ "time/tzdata"

	"attendance/cmd"
)

func main() {
	cmd.Execute()
}
