package system

// InitResourceLimits is a no-op on Windows; handle limits are managed by
// the OS.
func InitResourceLimits() {}
