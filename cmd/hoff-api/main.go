package main

import "github.com/Alex2744-cyber/Hoff-AppV2/services/api/cli"

func main() {
	cli.Execute()
}
