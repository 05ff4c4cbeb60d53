package main

import "github.com/gitzen/gitzen/cmd/gitzen"

func main() {
	gitzen.Execute()
}
