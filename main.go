package main

import "github.com/andresmejia3/faceenroll/cmd"

func main() {
	cmd.Execute()
}
