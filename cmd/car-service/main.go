package main

import (
	"fmt"
	"os"

	"github.com/ondrasimku/vision-service/internal/app"
)

func main() {
	if err := app.NewCommand(app.CarService).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
