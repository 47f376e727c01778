package main

import "github.com/KaramelBytes/couponlens/cmd"

func main() {
	cmd.Execute()
}
