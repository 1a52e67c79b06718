package main

import "github.com/uastack/authgate/cmd"

func main() {
	cmd.Execute()
}
