package main

import (
	"leancoffee/core/internal/app"
	"leancoffee/core/internal/config"
)

func main() {
	app.Go(config.Load())
}
