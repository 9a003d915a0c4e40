/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/tristendillon/doppelganger/cmd"

func main() {
	cmd.Execute()
}
