package main

import (
	"github.com/blogcms/blog-api/cmd"
)

func main() {
	cmd.Execute()
}
