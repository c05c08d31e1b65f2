package main

import "os"

func envOr(v, key string) string {
	if v != "" {
		return v
	}
	return os.Getenv(key)
}
