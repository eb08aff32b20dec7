/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/capitancloud/ai-text-companion/cmd"

func main() {
	cmd.Execute()
}
