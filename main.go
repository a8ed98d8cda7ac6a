package main

import "github.com/vibast-solutions/ms-go-clubs/cmd"

func main() {
	cmd.Execute()
}
