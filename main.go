package main

import "github.com/Sunnie-Evergale/stcm2l-psv/internal/cli"

func main() {
	cli.Execute()
}
