/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ssargent/nexkit/cmd/nexkit/cmd"

func main() {
	cmd.Execute()
}
