package platform

// AppName identifies the application to the host notification center.
const AppName = "MuralMend"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath points to an image shown with the notification where supported.
	IconPath string
	// Urgent marks failures so the notification center keeps them visible.
	Urgent bool
	// TimeoutMillis is how long the notification stays up. Zero uses 5s.
	TimeoutMillis int32
}

func (o Options) timeout() int32 {
	if o.TimeoutMillis > 0 {
		return o.TimeoutMillis
	}
	return 5000
}
