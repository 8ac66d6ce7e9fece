package main

import (
	"log"

	"dzika/cmd"
)

func main() {
	cmd.Execute()
	log.Println("Application command execution finished or server started.")
}
