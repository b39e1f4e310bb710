package main

import "life-story-backend/cmd"

func main() {
	cmd.Run()
}
