package ports

// Frontend is a long-running entry point into the analysis service
type Frontend interface {
	// Name identifies the frontend in logs
	Name() string

	// Start serves until Stop is called. It returns nil after a clean stop.
	Start() error

	// Stop shuts the frontend down gracefully
	Stop() error
}
