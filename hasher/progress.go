package hasher

// Status is a snapshot of folder hashing progress.
type Status struct {
	// Path is the relative path of the entry being hashed.
	Path string

	// FilesDone counts entries whose content has been fully folded in.
	FilesDone int

	// FilesTotal is the number of entries in the tree.
	FilesTotal int

	// BytesDone counts content bytes folded in so far.
	BytesDone int64

	// BytesTotal is the sum of the entry sizes seen at enumeration.
	BytesTotal int64
}

// Progress observes folder hashing. Report is called after every chunk
// and after every file; it runs on the hashing goroutine.
type Progress interface {
	Report(s Status)
}

// ProgressFunc adapts a plain function to the Progress interface.
type ProgressFunc func(s Status)

// Report calls f(s).
func (f ProgressFunc) Report(s Status) {
	f(s)
}

// Option configures folder hashing.
type Option func(*options)

type options struct {
	progress Progress
}

// WithProgress attaches a progress sink. A nil sink is ignored.
func WithProgress(p Progress) Option {
	return func(o *options) {
		o.progress = p
	}
}

func buildOptions(opts []Option) options {
	var o options

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

func (o options) report(s Status) {
	if o.progress != nil {
		o.progress.Report(s)
	}
}
