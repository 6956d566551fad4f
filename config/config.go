package config

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv .env 不存在就直接用进程环境变量（容器里常见）
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
}
