package main

import "derivative-service/app"

func main() {
	app.Run()
}
