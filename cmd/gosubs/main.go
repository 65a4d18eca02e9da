package main

import "github.com/ofir123/go-subs/cmd/gosubs/cmd"

func main() {
	cmd.Execute()
}
