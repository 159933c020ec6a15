package main

import "github.com/LarjGit/edinburgh-finds-sub001/cmd/pipeline/cmd"

func main() {
	cmd.Execute()
}
