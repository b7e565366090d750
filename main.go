package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/keysweep/keysweep/cmd"
)

func main() {
	cmd.Execute()
}
