package main

import (
	"log"

	"vocal-command-detection/commands"
)

func main() {
	err := commands.Execute()
	if err != nil {
		log.Fatalf("error: %v", err)
	}
}
