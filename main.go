package main

import (
	"github/helmwallet/wallet-engine/cmd"
)

func main() {
	cmd.Execute()
}
