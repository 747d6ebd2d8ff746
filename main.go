package main

import (
	"log"

	"github.com/thiagokokada/gitrun/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitrun: %v", err)
	}
}
