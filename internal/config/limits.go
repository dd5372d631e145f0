package config

const (
	// MaxResourceNameLength is the maximum length for resource names
	// (folders, files, roots). Limited to 255 to fit in PostgreSQL
	// VARCHAR(255) and provide reasonable UX.
	MaxResourceNameLength = 255

	// MaxFileNameLength is the maximum length for uploaded file names,
	// matching resource names since uploads become resources.
	MaxFileNameLength = 255

	// MaxStoragePathLength is the maximum length for full object paths.
	// Set to 500 to allow paths like "project/context/A/B/C/file" where
	// each segment can be up to 100 characters. Longer paths indicate
	// overly deep hierarchies (anti-pattern).
	MaxStoragePathLength = 500
)
