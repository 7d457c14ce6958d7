package natsio

import "time"

type Config struct {
	url            string
	baseSubject    string
	defaultTimeout time.Duration
}

func NewConfig(url string) *Config {
	return &Config{
		url:            url,
		baseSubject:    "relay",
		defaultTimeout: 16 * time.Second,
	}
}
