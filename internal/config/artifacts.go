package config

// ArtifactsConfig controls optional publishing of generated artifacts to S3.
type ArtifactsConfig struct {
	S3Bucket string
	S3Prefix string
}

// PublishEnabled reports whether an S3 bucket is configured.
func (c ArtifactsConfig) PublishEnabled() bool {
	return c.S3Bucket != ""
}

func loadArtifacts() ArtifactsConfig {
	return ArtifactsConfig{
		S3Bucket: envOrDefault(envS3Bucket, ""),
		S3Prefix: envOrDefault(envS3Prefix, ""),
	}
}
