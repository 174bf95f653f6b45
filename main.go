package main

import "github.com/Govind-619/LinkSphere/cmd"

func main() {
	cmd.Execute()
}
