package s3client

import "strings"

type Option func(c *S3Client)

func ConnAttempts(attempts int) Option {
	return func(c *S3Client) {
		c.connAttempts = attempts
	}
}

func Region(region string) Option {
	return func(c *S3Client) {
		if region != "" {
			c.region = region
		}
	}
}

// KeyPrefix lets several services share one bucket.
func KeyPrefix(prefix string) Option {
	return func(c *S3Client) {
		c.keyPrefix = strings.Trim(prefix, "/")
	}
}
