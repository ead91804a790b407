package main

import "github.com/chainvault/go-signer/cmd"

func main() {
	cmd.Execute()
}
