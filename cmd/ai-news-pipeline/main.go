package main

import (
	"ai-news-pipeline/cmd/cmd"
	"ai-news-pipeline/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
