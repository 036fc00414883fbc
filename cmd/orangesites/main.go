package main

import "github.com/abdallahh166/Orangesites-sub000/internal/cli"

func main() {
	cli.Execute()
}
