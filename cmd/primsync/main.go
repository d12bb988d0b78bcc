package main

import (
	"os"

	cmd "github.com/MrSnakeDoc/primsync/internal"
	"github.com/MrSnakeDoc/primsync/internal/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.LogError(err.Error())
		os.Exit(1)
	}
}
