package main

import "github.com/opencourselab/lecture-api/cmd"

func main() {
	cmd.Execute()
}
