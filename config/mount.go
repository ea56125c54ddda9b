package config

// MountOptions holds high-level settings for the read-only FUSE export.
// No go-fuse types are exposed here.
type MountOptions struct {
	Debug  bool   // fuse debug logs
	FsName string // mount's FsName
	Name   string // mount's Name
}

// StoreConfig selects and configures the persistence gateway.
// Which fields are read depends on Type:
//
//	memory:   none
//	file:     Path (directory holding root.json and snapshots/)
//	sqlite:   Path (database file) or DSN
//	postgres: DSN
//	s3:       Bucket, Region, Endpoint (optional, path-style), Prefix,
//	          AccessKey/SecretKey (optional; default credential chain otherwise)
type StoreConfig struct {
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	DSN      string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	Bucket   string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Region   string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`

	AccessKey string `yaml:"access_key,omitempty" json:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty" json:"secret_key,omitempty"`
}
