package main

import "inventoryKeeper/cmd"

func main() {
	cmd.Execute()
}
