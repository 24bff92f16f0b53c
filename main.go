package main

import (
	"onegov.dev/electionday/cmd/app"
)

func main() {
	app.Run()
}
