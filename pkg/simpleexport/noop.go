package simpleexport

// NoopHost is a host without a download affordance.
// Exporters built on it accept every call and save nothing.
type NoopHost struct{}

// NewNoopHost creates a new host that never saves
func NewNoopHost() Host {
	return &NoopHost{}
}

// DownloadCapability always reports no capability
func (n *NoopHost) DownloadCapability() (CanTriggerDownload, bool) {
	return nil, false
}

// NoopLogger is a no-operation implementation of Logger
type NoopLogger struct{}

// Error does nothing
func (NoopLogger) Error(msg string, args ...any) {}
