package main

import (
	"log"
	"os"
)

func run() error {
	return nil
}

func shutdown() {
	os.Exit(3)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err) // want `direct call to log.Fatal in function main`
	}

	defer func() {
		os.Exit(2)
	}()

	shutdown()
	os.Exit(1) // want `direct call to os.Exit in function main`
}
