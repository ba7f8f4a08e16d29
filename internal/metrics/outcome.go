package metrics

import "time"

// Outcome summarises one pipeline run for metric sinks.
type Outcome struct {
	// Source names the entry point, e.g. "upload" or "s3".
	Source    string
	MediaKind string
	// ErrorKind is empty on success.
	ErrorKind string
	Load      time.Duration
	Describe  time.Duration
	Hooks     time.Duration
	Total     time.Duration
}

// Succeeded reports whether the run produced captions.
func (o Outcome) Succeeded() bool { return o.ErrorKind == "" }

// Record adds the outcome to an EMF recorder.
func (r *Recorder) Record(o Outcome) *Recorder {
	if o.Source != "" {
		r.Dimension("Source", o.Source)
	}
	if o.MediaKind != "" {
		r.Property("mediaKind", o.MediaKind)
	}
	if o.Succeeded() {
		r.Count("HooksGenerated")
	} else {
		r.Count("HooksFailed")
		r.Property("errorKind", o.ErrorKind)
	}
	r.Duration("LoadLatencyMs", o.Load)
	r.Duration("DescribeLatencyMs", o.Describe)
	r.Duration("HooksLatencyMs", o.Hooks)
	r.Duration("TotalLatencyMs", o.Total)
	return r
}
