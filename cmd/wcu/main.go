// Command wcu is a line-oriented operator console for the vehicle.
// RLOADER_ADDR selects the vehicle (default rloader:2001).
package main

import (
	"RLoader/internal/util"
	"RLoader/internal/wcu"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		util.Logger.Warnf(".env: %v", err)
	}
	util.SetupLogger(os.Getenv("LOG_LEVEL"))

	if err := run(); err != nil {
		util.Error("%v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := os.Getenv("RLOADER_ADDR")
	if addr == "" {
		addr = "rloader:2001"
	}
	c, err := wcu.Dial(addr, 2*time.Second)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Run(os.Stdin, os.Stdout)
}
