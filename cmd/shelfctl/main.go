package main

import "video-shelf/cmd/shelfctl/cmd"

func main() {
	cmd.Execute()
}
